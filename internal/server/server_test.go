package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
	"go.uber.org/zap/zaptest"

	"github.com/KaramelBytes/mediaintel-cli/internal/filter"
	"github.com/KaramelBytes/mediaintel-cli/internal/insight"
	"github.com/KaramelBytes/mediaintel-cli/internal/report"
	"github.com/KaramelBytes/mediaintel-cli/internal/session"
	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

const sampleCSV = `Date,Platform,Sentiment,Media Type,Location,Engagements,Headline
2024-01-01,X,Positive,Video,Jakarta,10,a
2024-01-01,Y,Negative,Image,Bandung,5,b
2024-01-02,X,Positive,Video,Jakarta,3,c
not-a-date,X,Positive,Video,Jakarta,7,d
`

type fakeGen struct {
	calls atomic.Int32
	text  string
	err   error
}

func (f *fakeGen) Generate(ctx context.Context, prompt, persona string) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

func newTestServer(t *testing.T, gen insight.Generator) (*gin.Engine, *session.Session) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	sess := session.New(log)
	srv := New(Config{MaxUploadMB: 1}, sess, insight.NewService(gen, log), log)
	return srv.Router(), sess
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, r http.Handler, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestServer(t, &fakeGen{})
	w := do(r, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEndpointsRequireDataset(t *testing.T) {
	r, _ := newTestServer(t, &fakeGen{})
	for _, tc := range []struct{ method, path, body string }{
		{"GET", "/api/v1/filters", ""},
		{"POST", "/api/v1/charts", ""},
		{"POST", "/api/v1/insights", `{"chart":"trend"}`},
		{"POST", "/api/v1/summary", ""},
		{"POST", "/api/v1/post-idea", ""},
		{"POST", "/api/v1/ask", `{"question":"why?"}`},
	} {
		w := do(r, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusConflict, w.Code)
	}
}

func TestUpload(t *testing.T) {
	r, sess := newTestServer(t, &fakeGen{})

	w := upload(t, r, "media.csv", sampleCSV)
	assert.Equal(t, http.StatusOK, w.Code)

	var res UploadResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "media.csv", res.Source)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, sess.Snapshot().Version, res.Version)
}

func TestUpload_Errors(t *testing.T) {
	r, sess := newTestServer(t, &fakeGen{})

	w := do(r, "POST", "/api/v1/upload", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, r, "broken.csv", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, sess.Snapshot().Loaded())

	w = upload(t, r, "big.csv", strings.Repeat("x", 2<<20))
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	r, _ := newTestServer(t, &fakeGen{})
	upload(t, r, "media.csv", sampleCSV)

	w := do(r, "GET", "/api/v1/session", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var res SessionResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, true, res.Loaded)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 3, res.FilteredRows)

	w = do(r, "DELETE", "/api/v1/session", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, "GET", "/api/v1/session", "")
	res = SessionResponse{}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, false, res.Loaded)
}

func TestFilters(t *testing.T) {
	r, _ := newTestServer(t, &fakeGen{})
	upload(t, r, "media.csv", sampleCSV)

	w := do(r, "GET", "/api/v1/filters", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var o filter.Options
	json.Unmarshal(w.Body.Bytes(), &o)
	assert.Equal(t, []string{"X", "Y"}, o.Platforms)
	assert.Equal(t, []string{"Bandung", "Jakarta"}, o.Locations)
}

func TestCharts(t *testing.T) {
	r, sess := newTestServer(t, &fakeGen{})
	upload(t, r, "media.csv", sampleCSV)

	w := do(r, "POST", "/api/v1/charts", `{"criteria":{"start":"2024-01-01","end":"2024-01-01","platforms":["*"]}}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var res ChartsResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 5, len(res.Charts))
	assert.Equal(t, views.Trend, res.Charts[1].Key)
	assert.Equal(t, int64(15), res.Charts[1].Points[0].Value)
	assert.Equal(t, []string{"X", "Y"}, res.Criteria.Platforms)
	assert.Equal(t, 2, sess.Snapshot().Filtered().Len())

	// Without criteria the stored filters stay in force.
	w = do(r, "POST", "/api/v1/charts", "")
	res = ChartsResponse{}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 2, res.Rows)

	w = do(r, "POST", "/api/v1/charts", `{"criteria":{"platforms":[]}}`)
	res = ChartsResponse{}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 0, res.Rows)
	assert.Equal(t, 0, len(res.Charts[0].Points))

	w = do(r, "POST", "/api/v1/charts", `{"criteria":{"start":"yesterday"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCharts_ConcurrentFiltersStayPerRequest(t *testing.T) {
	r, _ := newTestServer(t, &fakeGen{})
	upload(t, r, "media.csv", sampleCSV)

	wantRows := map[string]int{"X": 2, "Y": 1}
	var mismatches atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		platform := "X"
		if i%2 == 1 {
			platform = "Y"
		}
		wg.Add(1)
		go func(platform string) {
			defer wg.Done()
			w := do(r, "POST", "/api/v1/charts", `{"criteria":{"platforms":["`+platform+`"]}}`)
			var res ChartsResponse
			if w.Code != http.StatusOK || json.Unmarshal(w.Body.Bytes(), &res) != nil {
				mismatches.Add(1)
				return
			}
			if res.Rows != wantRows[platform] || len(res.Criteria.Platforms) != 1 || res.Criteria.Platforms[0] != platform {
				mismatches.Add(1)
			}
		}(platform)
	}
	wg.Wait()
	assert.Equal(t, int32(0), mismatches.Load())
}

func TestInsights(t *testing.T) {
	gen := &fakeGen{text: "1. Engagement peaked on day one."}
	r, sess := newTestServer(t, gen)
	upload(t, r, "media.csv", sampleCSV)

	w := do(r, "POST", "/api/v1/insights", `{"chart":"trend","persona":"Mistral 7B Instruct"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	var res InsightsResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, len(res.Insights))
	assert.Equal(t, insight.Creative, res.Insights[0].Persona)
	assert.Equal(t, gen.text, res.Insights[0].Text)

	stored, ok := sess.Insight(views.Trend, insight.Creative)
	assert.Equal(t, true, ok)
	assert.Equal(t, gen.text, stored.Text)

	w = do(r, "POST", "/api/v1/insights", `{"chart":"media_type"}`)
	res = InsightsResponse{}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, len(insight.Personas()), len(res.Insights))

	w = do(r, "POST", "/api/v1/insights", `{"chart":"pie"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, "POST", "/api/v1/insights", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsights_GeneratorFailure(t *testing.T) {
	r, _ := newTestServer(t, &fakeGen{err: errors.New("quota exceeded")})
	upload(t, r, "media.csv", sampleCSV)

	w := do(r, "POST", "/api/v1/summary", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var in insight.Insight
	json.Unmarshal(w.Body.Bytes(), &in)
	assert.Equal(t, insight.FailureText, in.Text)
	assert.Equal(t, true, in.Failed)
}

func TestPostIdeaEmptyFilter(t *testing.T) {
	gen := &fakeGen{text: "idea"}
	r, _ := newTestServer(t, gen)
	upload(t, r, "media.csv", sampleCSV)
	do(r, "POST", "/api/v1/charts", `{"criteria":{"locations":[]}}`)

	w := do(r, "POST", "/api/v1/post-idea", "")
	var in insight.Insight
	json.Unmarshal(w.Body.Bytes(), &in)
	assert.Equal(t, insight.EmptyText, in.Text)
	assert.Equal(t, int32(0), gen.calls.Load())
}

func TestAsk(t *testing.T) {
	r, _ := newTestServer(t, &fakeGen{text: "Focus on video."})
	upload(t, r, "media.csv", sampleCSV)

	w := do(r, "POST", "/api/v1/ask", `{"question":"What should we post?","history":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	var in insight.Insight
	json.Unmarshal(w.Body.Bytes(), &in)
	assert.Equal(t, insight.KindAnswer, in.Kind)
	assert.Equal(t, "Focus on video.", in.Text)

	w = do(r, "POST", "/api/v1/ask", `{"question":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReport(t *testing.T) {
	r, _ := newTestServer(t, &fakeGen{text: "Strategy text."})

	w := do(r, "GET", "/api/v1/report", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, strings.Contains(w.Body.String(), report.Placeholder))

	upload(t, r, "media.csv", sampleCSV)
	do(r, "POST", "/api/v1/summary", "")

	w = do(r, "GET", "/api/v1/report?format=json", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	var rep report.Report
	json.Unmarshal(w.Body.Bytes(), &rep)
	assert.Equal(t, "Strategy text.", rep.Summary)
	assert.Equal(t, report.Placeholder, rep.PostIdea)
	assert.Equal(t, 3, rep.Rows)
	assert.Equal(t, 1, rep.Skipped)

	w = do(r, "GET", "/api/v1/report?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaleInsightDiscardedAfterReupload(t *testing.T) {
	r, sess := newTestServer(t, &fakeGen{text: "old"})
	upload(t, r, "media.csv", sampleCSV)
	do(r, "POST", "/api/v1/summary", "")
	assert.Equal(t, true, sess.Snapshot().Summary != nil)

	upload(t, r, "media.csv", sampleCSV)
	assert.Equal(t, true, sess.Snapshot().Summary == nil)
}
