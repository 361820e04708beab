package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KaramelBytes/mediaintel-cli/internal/dataset"
	"github.com/KaramelBytes/mediaintel-cli/internal/filter"
	"github.com/KaramelBytes/mediaintel-cli/internal/insight"
	"github.com/KaramelBytes/mediaintel-cli/internal/report"
	"github.com/KaramelBytes/mediaintel-cli/internal/session"
	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

func (s *Server) GetHealth(c *gin.Context) {
	snap := s.session.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"dataset": snap.Loaded(),
	})
}

func (s *Server) Upload(c *gin.Context) {
	limit := int64(s.cfg.MaxUploadMB) << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds the size limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.log.Error("error opening upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read upload"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.log.Error("error reading upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read upload"})
		return
	}

	ds, err := dataset.Load(fh.Filename, data)
	if err != nil {
		s.log.Warn("upload rejected", zap.String("file", fh.Filename), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	version := s.session.Load(ds)
	c.JSON(http.StatusOK, UploadResponse{
		Source:  ds.Source,
		Version: version,
		Rows:    ds.Len(),
		Skipped: ds.Skipped,
	})
}

func (s *Server) GetSession(c *gin.Context) {
	snap := s.session.Snapshot()
	res := SessionResponse{Loaded: snap.Loaded(), Criteria: snap.Criteria, Insights: len(snap.Insights)}
	if snap.Loaded() {
		res.Source = snap.Dataset.Source
		res.Version = snap.Version
		res.LoadedAt = snap.LoadedAt.Format(time.RFC3339)
		res.Rows = snap.Dataset.Len()
		res.Skipped = snap.Dataset.Skipped
		res.FilteredRows = snap.Filtered().Len()
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) ResetSession(c *gin.Context) {
	s.session.Reset()
	c.Status(http.StatusNoContent)
}

func (s *Server) GetFilters(c *gin.Context) {
	snap, ok := s.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, filter.OptionsFor(snap.Dataset))
}

func (s *Server) PostCharts(c *gin.Context) {
	var req ChartsRequest
	if !bindOptional(c, &req) {
		return
	}
	snap, ok := s.applyCriteria(c, req.Criteria)
	if !ok {
		return
	}
	filtered := snap.Filtered()
	c.JSON(http.StatusOK, ChartsResponse{
		Version:  snap.Version,
		Rows:     filtered.Len(),
		Criteria: snap.Criteria,
		Charts:   views.All(filtered),
	})
}

func (s *Server) PostInsights(c *gin.Context) {
	var req InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := views.ParseKey(req.Chart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, ok := s.applyCriteria(c, req.Criteria)
	if !ok {
		return
	}
	res, err := views.Compute(snap.Filtered(), key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	personas := []string{req.Persona}
	if req.Persona == "" {
		personas = personas[:0]
		for _, p := range insight.Personas() {
			personas = append(personas, p.ID)
		}
	}
	out := s.insights.ChartInsights(c.Request.Context(), snap.Version, []views.ChartResult{res}, personas)
	for _, in := range out {
		s.store(in)
	}
	c.JSON(http.StatusOK, InsightsResponse{Version: snap.Version, Insights: out})
}

func (s *Server) PostSummary(c *gin.Context) {
	snap, ok := s.current(c)
	if !ok {
		return
	}
	in := s.insights.Summary(c.Request.Context(), snap.Version, snap.Filtered())
	s.store(in)
	c.JSON(http.StatusOK, in)
}

func (s *Server) PostIdea(c *gin.Context) {
	snap, ok := s.current(c)
	if !ok {
		return
	}
	in := s.insights.PostIdea(c.Request.Context(), snap.Version, snap.Filtered())
	s.store(in)
	c.JSON(http.StatusOK, in)
}

func (s *Server) PostAsk(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, ok := s.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.insights.Ask(c.Request.Context(), snap.Version, snap.Filtered(), req.Question, req.History))
}

func (s *Server) GetReport(c *gin.Context) {
	format, err := report.ParseFormat(c.DefaultQuery("format", "md"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap := s.session.Snapshot()
	in := report.Input{
		Version:  snap.Version,
		Criteria: snap.Criteria,
		Insights: snap.Insights,
		Summary:  snap.Summary,
		PostIdea: snap.PostIdea,
	}
	if snap.Loaded() {
		in.Source = snap.Dataset.Source
		in.Skipped = snap.Dataset.Skipped
		in.Dataset = snap.Filtered()
	}
	body, err := report.Build(in, report.Options{}).Encode(format)
	if err != nil {
		s.log.Error("error encoding report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not encode report"})
		return
	}
	c.Data(http.StatusOK, format.ContentType(), body)
}

// current writes 409 and returns false when no dataset is loaded.
func (s *Server) current(c *gin.Context) (session.Snapshot, bool) {
	snap, err := s.session.Current()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return snap, false
	}
	return snap, true
}

// applyCriteria replaces the session filters when req is non-nil. The returned snapshot
// carries the request's own filters even if another request changes the session afterwards.
func (s *Server) applyCriteria(c *gin.Context, req *CriteriaRequest) (session.Snapshot, bool) {
	snap, ok := s.current(c)
	if !ok || req == nil {
		return snap, ok
	}
	crit, err := req.toCriteria()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return snap, false
	}
	snap.Criteria = filter.Resolve(crit, snap.Dataset)
	if err := s.session.SetCriteria(snap.Criteria); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return snap, false
	}
	return snap, true
}

func (s *Server) store(in insight.Insight) {
	if err := s.session.Store(in); err != nil && !errors.Is(err, session.ErrStale) {
		s.log.Error("error storing insight", zap.Error(err))
	}
}

// bindOptional decodes a JSON body if one was sent.
func bindOptional(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
