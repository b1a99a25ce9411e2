package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/stepsheet"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/steps"
	"github.com/aretw0/stepsheet/pkg/transpile"
)

// Engine defines the part of the stepsheet engine served over HTTP.
type Engine interface {
	Apply(ctx context.Context, kind domain.StepKind, params map[string]any) (*steps.Step, error)
	Undo(ctx context.Context) error
	Redo(ctx context.Context) (*steps.Step, error)
	Clear(ctx context.Context)
	Replay(ctx context.Context, analysis *domain.Analysis) error
	Analysis(name string) (*domain.Analysis, error)
	Code(opts ...transpile.Option) (string, error)
	State() *domain.State
	Describe() []string
	Preview(i, maxRows int) (string, error)
	Graph() string
	Kinds() []domain.StepKind
}

var _ Engine = (*stepsheet.Engine)(nil)

// Server routes requests to an Engine.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	logger  *slog.Logger
	gather  prometheus.Gatherer
}

// Option configures the handler.
type Option func(*Server)

// WithStreams serves GET /events from sm. The same manager's Hooks must be
// registered on the engine for events to flow.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves the metrics of g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gather = g
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{Engine: engine}
	for _, opt := range opts {
		opt(server)
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(server.logRequests)

	r.Get("/health", server.Health)
	r.Get("/kinds", server.ListKinds)
	r.Post("/steps", server.ApplyStep)
	r.Post("/undo", server.Undo)
	r.Post("/redo", server.Redo)
	r.Post("/clear", server.Clear)
	r.Post("/replay", server.Replay)
	r.Get("/analysis", server.GetAnalysis)
	r.Get("/code", server.GetCode)
	r.Get("/steps", server.ListSteps)
	r.Get("/graph", server.GetGraph)
	r.Route("/datasets", func(r chi.Router) {
		r.Get("/", server.ListDatasets)
		r.Get("/{index}", server.PreviewDataset)
	})
	if server.Streams != nil {
		r.Get("/events", server.SubscribeEvents)
	}
	if server.gather != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gather, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start),
		)
	})
}

// ApplyRequest is the body of POST /steps.
type ApplyRequest struct {
	Kind   domain.StepKind `json:"kind"`
	Params map[string]any  `json:"params"`
}

// StepResponse describes a step that was just applied.
type StepResponse struct {
	ID             string            `json:"id"`
	Kind           domain.StepKind   `json:"kind"`
	Version        int               `json:"version"`
	Params         map[string]any    `json:"params"`
	ProcessingTime time.Duration     `json:"processing_time"`
	Coercion       *domain.Coercion  `json:"coercion,omitempty"`
	Refreshed      []int             `json:"refreshed,omitempty"`
	Diff           *domain.StateDiff `json:"diff,omitempty"`
}

// DatasetInfo summarises one dataset of the current state.
type DatasetInfo struct {
	Index   int          `json:"index"`
	Name    string       `json:"name"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo is the header and dtype of a column.
type ColumnInfo struct {
	Header domain.ColumnHeader `json:"header"`
	Dtype  domain.Dtype        `json:"dtype"`
}

// Health reports the server version.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "stepsheet-http",
		"version": strings.TrimSpace(stepsheet.Version),
	})
}

// ListKinds handles GET /kinds.
func (s *Server) ListKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Kinds())
}

// ApplyStep handles POST /steps.
func (s *Server) ApplyStep(w http.ResponseWriter, r *http.Request) {
	var body ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("ApplyStep: Invalid request body", "err", err)
		return
	}
	if body.Params == nil {
		body.Params = map[string]any{}
	}

	step, err := s.Engine.Apply(r.Context(), body.Kind, body.Params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeStep(w, http.StatusCreated, step)
}

// Undo handles POST /undo.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Undo(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.ListSteps(w, r)
}

// Redo handles POST /redo.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	step, err := s.Engine.Redo(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeStep(w, http.StatusOK, step)
}

// Clear handles POST /clear.
func (s *Server) Clear(w http.ResponseWriter, r *http.Request) {
	s.Engine.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Replay handles POST /replay. The body is an analysis.
func (s *Server) Replay(w http.ResponseWriter, r *http.Request) {
	var analysis domain.Analysis
	if err := json.NewDecoder(r.Body).Decode(&analysis); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Replay: Invalid request body", "err", err)
		return
	}
	if err := s.Engine.Replay(r.Context(), &analysis); err != nil {
		s.writeError(w, err)
		return
	}
	s.ListSteps(w, r)
}

// GetAnalysis handles GET /analysis?name=.
func (s *Server) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.Engine.Analysis(r.URL.Query().Get("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// GetCode handles GET /code?comments=. The script is returned as plain text.
func (s *Server) GetCode(w http.ResponseWriter, r *http.Request) {
	comments, _ := strconv.ParseBool(r.URL.Query().Get("comments"))
	code, err := s.Engine.Code(transpile.WithComments(comments))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/x-python; charset=utf-8")
	fmt.Fprint(w, code)
}

// ListSteps handles GET /steps.
func (s *Server) ListSteps(w http.ResponseWriter, r *http.Request) {
	described := s.Engine.Describe()
	if described == nil {
		described = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"steps": described})
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, s.Engine.Graph())
}

// ListDatasets handles GET /datasets.
func (s *Server) ListDatasets(w http.ResponseWriter, r *http.Request) {
	state := s.Engine.State()
	out := make([]DatasetInfo, state.Len())
	for i, ds := range state.Datasets {
		info := DatasetInfo{Index: i, Name: state.Names[i], Rows: ds.Rows(), Columns: make([]ColumnInfo, len(ds.Columns))}
		for n, col := range ds.Columns {
			info.Columns[n] = ColumnInfo{Header: col.Header, Dtype: col.Dtype}
		}
		out[i] = info
	}
	writeJSON(w, http.StatusOK, out)
}

// PreviewDataset handles GET /datasets/{index}?rows=. The dataset is
// rendered as a markdown table.
func (s *Server) PreviewDataset(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Invalid dataset index", http.StatusBadRequest)
		return
	}
	rows := 0
	if raw := r.URL.Query().Get("rows"); raw != "" {
		if rows, err = strconv.Atoi(raw); err != nil {
			http.Error(w, "Invalid rows", http.StatusBadRequest)
			return
		}
	}

	table, err := s.Engine.Preview(index, rows)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, table)
}

func (s *Server) writeStep(w http.ResponseWriter, status int, step *steps.Step) {
	rec, err := step.Record()
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := StepResponse{
		ID:             step.ID,
		Kind:           step.Kind,
		Version:        step.Version,
		Params:         rec.Params,
		ProcessingTime: step.Exec.ProcessingTime,
		Coercion:       step.Exec.Coercion,
		Diff:           domain.Diff(step.Prev, step.Final()),
	}
	for _, ref := range step.Refreshes {
		resp.Refreshed = append(resp.Refreshed, ref.StepIndex)
	}
	writeJSON(w, status, resp)
}

// StatusCode maps an engine error to the HTTP status that reports it.
func StatusCode(err error) int {
	var (
		paramErr  *domain.ParameterError
		execErr   *domain.StepExecutionError
		replayErr *domain.ReplayError
	)
	switch {
	case errors.Is(err, domain.ErrNothingToUndo), errors.Is(err, domain.ErrNothingToRedo):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAnalysisNotFound):
		return http.StatusNotFound
	case errors.As(err, &replayErr), errors.As(err, &execErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnknownStepKind), errors.As(err, &paramErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}
