package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kestrellabs/lexrag/internal/answer"
	"github.com/kestrellabs/lexrag/internal/corpus"
	"github.com/kestrellabs/lexrag/internal/llm"
	"github.com/kestrellabs/lexrag/internal/pipeline"
	"github.com/kestrellabs/lexrag/internal/retrieve"
	"github.com/kestrellabs/lexrag/internal/store"
)

type stubProvider struct {
	reply string
	err   error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(context.Context, *llm.Prompt, *llm.RequestOptions) (*llm.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Content: s.reply}, nil
}

func (s *stubProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func testAPI(t *testing.T, provider *stubProvider) *API {
	t.Helper()
	flat, err := store.NewFlat("statute", []corpus.Passage{
		{ID: "s-0", Text: "disability definition", Ref: "Equality Act - s.6", Vector: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("NewFlat: %v", err)
	}
	engine := pipeline.New(provider, retrieve.New([]store.Store{flat}, 5), nil, answer.NewGenerator(provider, nil), 5)
	return NewAPI(engine, NewHealth(), time.Minute)
}

func TestAsk(t *testing.T) {
	api := testAPI(t, &stubProvider{reply: "Section 6 applies [1]."})
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/ask", "application/json", strings.NewReader(`{"question":"what is disability"}`))
	if err != nil {
		t.Fatalf("POST /ask: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var result pipeline.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.Answer != "Section 6 applies [1]." {
		t.Errorf("wrong answer: %q", result.Answer)
	}
	if len(result.Sources) != 1 || result.Sources[0].Ref != "Equality Act - s.6" {
		t.Errorf("wrong sources: %+v", result.Sources)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	api := testAPI(t, &stubProvider{reply: "unused"})
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/ask", "application/json", strings.NewReader(`{"question":"  "}`))
	if err != nil {
		t.Fatalf("POST /ask: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAskInvalidBody(t *testing.T) {
	api := testAPI(t, &stubProvider{reply: "unused"})
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/ask", "application/json", strings.NewReader(`{not json`))
	if err != nil {
		t.Fatalf("POST /ask: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAskUpstreamFailure(t *testing.T) {
	api := testAPI(t, &stubProvider{err: context.DeadlineExceeded})
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/ask", "application/json", strings.NewReader(`{"question":"q"}`))
	if err != nil {
		t.Fatalf("POST /ask: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", resp.StatusCode)
	}
}

func TestHealthAndReady(t *testing.T) {
	health := NewHealth()
	health.RegisterCheck("statute", func(ctx context.Context) HealthCheck {
		return HealthCheck{Name: "statute", Status: HealthStatusHealthy}
	})
	api := testAPI(t, &stubProvider{reply: "unused"})
	api.health = health
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("readyz before SetReady = %d, want 503", resp.StatusCode)
	}

	health.SetReady(true)
	resp, err = http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("readyz after SetReady = %d, want 200", resp.StatusCode)
	}
}

func TestHealthUnhealthyComponent(t *testing.T) {
	health := NewHealth()
	health.RegisterCheck("qdrant", func(ctx context.Context) HealthCheck {
		return HealthCheck{Name: "qdrant", Status: HealthStatusUnhealthy, Message: "connection refused"}
	})
	api := testAPI(t, &stubProvider{reply: "unused"})
	api.health = health
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Status != HealthStatusUnhealthy {
		t.Errorf("body status = %q, want unhealthy", body.Status)
	}
}
