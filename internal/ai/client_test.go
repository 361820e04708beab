package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func testServerSequence(t *testing.T, statuses []int, headers []http.Header, bodyOK any) (*ipv4Server, *int32) {
	t.Helper()
	var idx int32
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		i := int(atomic.AddInt32(&idx, 1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		st := statuses[i]
		if headers != nil && i < len(headers) && headers[i] != nil {
			for k, vals := range headers[i] {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
		}
		w.WriteHeader(st)
		if st >= 200 && st < 300 {
			_ = json.NewEncoder(w).Encode(bodyOK)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "rate limited"}})
	})), &idx
}

var okBody = GenerateResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: "ok"}}}}

func hi() GenerateRequest {
	return GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 1}
}

func TestGenerateRetriesOn429(t *testing.T) {
	srv, _ := testServerSequence(t, []int{429, 200}, []http.Header{{"Retry-After": {"0"}}, {}}, okBody)
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, 3, 10*time.Millisecond, 100*time.Millisecond, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, hi())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if resp.Text() != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRetryAfterHonored(t *testing.T) {
	srv, _ := testServerSequence(t, []int{429, 200}, []http.Header{{"Retry-After": {"1"}}, {}}, okBody)
	defer srv.Close()

	c := NewClientWithBaseURL("test", 5*time.Second, 3, 0, 0, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	if _, err := c.Generate(ctx, hi()); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Fatalf("expected at least ~1s delay due to Retry-After, got %v", elapsed)
	}
}

func TestServerErrorExhaustsRetries(t *testing.T) {
	srv, calls := testServerSequence(t, []int{503}, nil, okBody)
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, 2, time.Millisecond, 5*time.Millisecond, srv.URL)
	_, err := c.Generate(context.Background(), hi())
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %T: %v", err, err)
	}
	if n := atomic.LoadInt32(calls); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}

func TestErrorIncludesRequestID(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req_test_123")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad req", "code": "bad_request"}})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, 1, 10*time.Millisecond, 50*time.Millisecond, srv.URL)
	_, err := c.Generate(context.Background(), hi())
	if err == nil {
		t.Fatalf("expected error")
	}
	var bad *BadRequestError
	if !errors.As(err, &bad) {
		t.Fatalf("expected BadRequestError, got %T", err)
	}
	if !strings.Contains(err.Error(), "req_test_123") {
		t.Fatalf("expected request id in error, got: %v", err)
	}
}

func TestAuthErrorClassified(t *testing.T) {
	srv, _ := testServerSequence(t, []int{401}, nil, okBody)
	defer srv.Close()
	c := NewClientWithBaseURL("test", 2*time.Second, 3, time.Millisecond, time.Millisecond, srv.URL)
	_, err := c.Generate(context.Background(), hi())
	var auth *AuthError
	if !errors.As(err, &auth) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if Hint(err) == "" {
		t.Fatalf("expected a hint for auth errors")
	}
}

func TestMissingKey(t *testing.T) {
	c := NewOpenRouterClient("")
	_, err := c.Generate(context.Background(), hi())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestOpenAIClientAgainstLocalServer(t *testing.T) {
	var gotModel string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"from openai"}}],
"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL, 2*time.Second, 0)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "from openai" || resp.Usage.TotalTokens != 5 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotModel != "gpt-4o-mini" {
		t.Fatalf("model not forwarded: %q", gotModel)
	}
}

func TestAnthropicClientAgainstLocalServer(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/messages") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5",
"content":[{"type":"text","text":"from claude"}],"stop_reason":"end_turn",
"usage":{"input_tokens":4,"output_tokens":3}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("sk-ant-test", srv.URL, 2*time.Second, 0)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:    "claude-haiku-4-5",
		Messages: []Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "from claude" || resp.Usage.TotalTokens != 7 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSDKClientsRequireKey(t *testing.T) {
	for name, rt := range map[string]Runtime{
		ProviderGemini:    NewGeminiClient("", time.Second),
		ProviderAnthropic: NewAnthropicClient("", "", time.Second, 0),
		ProviderOpenAI:    NewOpenAIClient("", "", time.Second, 0),
	} {
		if _, err := rt.Generate(context.Background(), hi()); !errors.Is(err, ErrMissingAPIKey) {
			t.Fatalf("%s: expected ErrMissingAPIKey, got %v", name, err)
		}
	}
}

type stubRuntime struct {
	resp *GenerateResponse
	err  error
	last GenerateRequest
}

func (s *stubRuntime) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	s.last = req
	return s.resp, s.err
}

func TestGeneratorWrapsFailures(t *testing.T) {
	rt := &stubRuntime{err: &AuthError{APIError: &APIError{StatusCode: 401}}}
	g := &Generator{Runtime: rt, Provider: ProviderOpenRouter}
	_, err := g.Generate(context.Background(), "prompt", "critical")
	var se *ServiceError
	if !errors.As(err, &se) || se.Provider != ProviderOpenRouter {
		t.Fatalf("expected ServiceError, got %T: %v", err, err)
	}
	var auth *AuthError
	if !errors.As(err, &auth) {
		t.Fatalf("ServiceError should unwrap to AuthError")
	}

	rt.err = nil
	rt.resp = &GenerateResponse{Choices: []Choice{{Message: Message{Content: "   "}}}}
	if _, err := g.Generate(context.Background(), "prompt", "critical"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}

	var nilGen *Generator
	if _, err := nilGen.Generate(context.Background(), "p", ""); !errors.As(err, &se) {
		t.Fatalf("nil generator should fail with ServiceError")
	}
}

func TestGeneratorModelRouting(t *testing.T) {
	rt := &stubRuntime{resp: &okBody}
	g := &Generator{Runtime: rt, Provider: ProviderGemini, PersonaModels: map[string]string{"creative": "gemini-2.5-flash"}}
	out, err := g.Generate(context.Background(), "prompt", "creative")
	if err != nil || out != "ok" {
		t.Fatalf("unexpected result %q %v", out, err)
	}
	if rt.last.Model != "gemini-2.5-flash" {
		t.Fatalf("persona model not used: %s", rt.last.Model)
	}
	_, _ = g.Generate(context.Background(), "prompt", "critical")
	if rt.last.Model != DefaultModel(ProviderGemini) {
		t.Fatalf("default model not used: %s", rt.last.Model)
	}
	if rt.last.Messages[0].Content != "prompt" {
		t.Fatalf("prompt not forwarded")
	}
}

func TestNewRuntimeUnknownProvider(t *testing.T) {
	if _, err := NewRuntime("nope", RuntimeConfig{}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	for _, p := range []string{ProviderOpenRouter, ProviderOllama, ProviderGemini, ProviderAnthropic, ProviderOpenAI} {
		if _, err := NewRuntime(p, RuntimeConfig{}); err != nil {
			t.Fatalf("%s: %v", p, err)
		}
	}
}
