package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/kestrellabs/lexrag/internal/pipeline"
)

// askRequest is the question payload from a display layer.
type askRequest struct {
	Question string `json:"question"`
}

// errorResponse is the body of failed requests.
type errorResponse struct {
	Error string `json:"error"`
}

// API serves the pipeline over HTTP.
type API struct {
	engine  *pipeline.Engine
	health  *Health
	logger  *slog.Logger
	timeout time.Duration
}

// NewAPI creates the HTTP API around an engine.
func NewAPI(engine *pipeline.Engine, health *Health, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &API{
		engine:  engine,
		health:  health,
		logger:  slog.Default(),
		timeout: timeout,
	}
}

// Handler returns the route table.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", a.handleAsk)
	mux.HandleFunc("GET /health", a.health.handleHealth)
	mux.HandleFunc("GET /healthz", a.health.handleHealth)
	mux.HandleFunc("GET /ready", a.health.handleReady)
	mux.HandleFunc("GET /readyz", a.health.handleReady)
	return mux
}

func (a *API) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.timeout)
	defer cancel()

	start := time.Now()
	result, err := a.engine.Ask(ctx, req.Question)
	if err != nil {
		a.logger.Error("ask failed", "err", err, "elapsed", time.Since(start))
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	a.logger.Info("ask served", "sources", len(result.Sources), "elapsed", time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
