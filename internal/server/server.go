// Package server exposes the solver over HTTP.
//
// # Endpoints
//
//	POST /v1/solve   {"input": "...", "policy": "batch"}         → pipeline.Result
//	POST /v1/solve   {"input": "...", "policy": "all"}           → {"results": [...]}
//	POST /v1/stacks  {"input": "...", "header_mode": "token"}    → {"stacks": [...]}
//	GET  /healthz                                                → {"status": "ok", "build": {...}}
//
// Failures, unknown routes included, are answered with
// {"error": {"code", "message", "request_id"}} and the status from
// errors.HTTPStatus.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/cratemover/pkg/buildinfo"
	"github.com/matzehuels/cratemover/pkg/errors"
	"github.com/matzehuels/cratemover/pkg/pipeline"
	"github.com/matzehuels/cratemover/pkg/supply"
)

const (
	// PolicyAll asks /v1/solve for every policy at once.
	PolicyAll = "all"

	// RequestIDHeader carries the request ID on every response.
	RequestIDHeader = "X-Request-Id"

	requestTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
	maxBodySize     = 2 * errors.MaxInputSize
)

// Server serves the HTTP API on top of a pipeline runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a server. A nil logger discards output.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodySize))
	r.Use(middleware.Timeout(requestTimeout))

	r.NotFound(s.handleNotFound)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Post("/stacks", s.handleStacks)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// =============================================================================
// Requests and Responses
// =============================================================================

// SolveRequest is the body of POST /v1/solve.
type SolveRequest struct {
	Input string `json:"input"`
	pipeline.Options
}

// SolveAllResponse answers a solve request for every policy.
type SolveAllResponse struct {
	Results []*pipeline.Result `json:"results"`
}

// StacksRequest is the body of POST /v1/stacks.
type StacksRequest struct {
	Input      string `json:"input"`
	HeaderMode string `json:"header_mode,omitempty"`
}

// StacksResponse describes the initial yard of an input.
type StacksResponse struct {
	Stacks   supply.Stacks `json:"stacks"`
	Tops     string        `json:"tops"`
	Crates   int           `json:"crates"`
	CacheHit bool          `json:"cache_hit"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes one failure.
type ErrorBody struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts := req.Options
	opts.Logger = s.requestLogger(r)

	if strings.EqualFold(strings.TrimSpace(opts.Policy), PolicyAll) {
		opts.Policy = ""
		results, err := s.runner.ExecuteAll(r.Context(), req.Input, opts, supply.Policies)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, SolveAllResponse{Results: results})
		return
	}

	result, err := s.runner.Execute(r.Context(), req.Input, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStacks(w http.ResponseWriter, r *http.Request) {
	var req StacksRequest
	if !s.decode(w, r, &req) {
		return
	}
	stacks, hit, err := s.runner.Stacks(r.Context(), req.Input, req.HeaderMode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StacksResponse{
		Stacks:   stacks,
		Tops:     stacks.Tops(),
		Crates:   stacks.Total(),
		CacheHit: hit,
	})
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() == context.DeadlineExceeded {
		err = errors.Wrap(errors.ErrCodeTimeout, err, "request timed out")
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatus(err)
	if status >= 500 {
		s.requestLogger(r).Error("request failed", "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   errors.UserMessage(err),
		RequestID: RequestIDFromContext(r.Context()),
	}})
}

func (s *Server) requestLogger(r *http.Request) *log.Logger {
	return s.logger.With("request_id", RequestIDFromContext(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
