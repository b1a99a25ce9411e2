package stepsheet

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/stepsheet/internal/logging"
	"github.com/aretw0/stepsheet/internal/presentation/graph"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/ingest"
	"github.com/aretw0/stepsheet/pkg/observability"
	"github.com/aretw0/stepsheet/pkg/ports"
	"github.com/aretw0/stepsheet/pkg/preview"
	"github.com/aretw0/stepsheet/pkg/registry"
	"github.com/aretw0/stepsheet/pkg/session"
	"github.com/aretw0/stepsheet/pkg/steps"
	"github.com/aretw0/stepsheet/pkg/transpile"
)

// Version is the release of the library and CLI.
//
//go:embed VERSION
var Version string

// Engine is the high-level entry point for the stepsheet library.
// It wraps a session and provides a simplified API for consumers.
type Engine struct {
	session  *session.Manager
	store    ports.AnalysisStore
	hooks    []domain.LifecycleHooks
	metrics  prometheus.Registerer
	csvOpts  []ingest.Option
	logger   *slog.Logger
	registry *registry.Registry
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks. It may be given more
// than once; hooks run in registration order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore enables Save and ReplaySaved.
func WithStore(store ports.AnalysisStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithMetrics registers the session metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.metrics = reg
	}
}

// WithCSVOptions configures how NewFromCSV reads its files.
func WithCSVOptions(opts ...ingest.Option) Option {
	return func(e *Engine) {
		e.csvOpts = append(e.csvOpts, opts...)
	}
}

// New starts a session over datasets. names[i] is the variable name of
// datasets[i] in generated code; missing names default to df1, df2, ...
func New(datasets []domain.Dataset, names []string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if err := checkInputs(datasets, names); err != nil {
		return nil, err
	}

	reg, err := registry.New()
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	eng.registry = reg

	// Ensure logger is initialized (so we don't pass nil to the session)
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	hooks := eng.hooks
	if eng.metrics != nil {
		m, err := observability.NewMetrics(eng.metrics)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		hooks = append(hooks, m.Hooks())
	}

	sessionOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithHooks(observability.Chain(hooks...)),
	}
	if eng.store != nil {
		sessionOpts = append(sessionOpts, session.WithStore(eng.store))
	}
	eng.session = session.NewManager(reg, domain.NewState(datasets, names), sessionOpts...)
	return eng, nil
}

// NewFromCSV reads each file into a dataset named after the file and starts
// a session over them.
func NewFromCSV(paths []string, opts ...Option) (*Engine, error) {
	probe := &Engine{}
	for _, opt := range opts {
		opt(probe)
	}

	datasets := make([]domain.Dataset, len(paths))
	names := make([]string, len(paths))
	for i, path := range paths {
		ds, name, err := ingest.ReadCSVFile(path, probe.csvOpts...)
		if err != nil {
			return nil, err
		}
		datasets[i], names[i] = ds, name
	}
	return New(datasets, names, opts...)
}

func checkInputs(datasets []domain.Dataset, names []string) error {
	if len(names) > len(datasets) {
		return fmt.Errorf("%d names for %d datasets", len(names), len(datasets))
	}
	var errs []error
	for i, ds := range datasets {
		if err := ds.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("dataset %d: %w", i, err))
		}
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("duplicate dataset name %q", name))
		}
		seen[name] = true
	}
	return errors.Join(errs...)
}

// Apply runs one step of the given kind with raw parameters.
func (e *Engine) Apply(ctx context.Context, kind domain.StepKind, params map[string]any) (*steps.Step, error) {
	return e.session.Apply(ctx, kind, params)
}

// Undo removes the last step.
func (e *Engine) Undo(ctx context.Context) error {
	return e.session.Undo(ctx)
}

// Redo reapplies the last undone step.
func (e *Engine) Redo(ctx context.Context) (*steps.Step, error) {
	return e.session.Redo(ctx)
}

// Clear drops every step.
func (e *Engine) Clear(ctx context.Context) {
	e.session.Clear(ctx)
}

// Replay replaces the log with analysis. On failure the current log stays.
func (e *Engine) Replay(ctx context.Context, analysis *domain.Analysis) error {
	return e.session.ReplayAnalysis(ctx, analysis)
}

// Save stores the current log under name.
func (e *Engine) Save(ctx context.Context, name string) error {
	return e.session.SaveAnalysis(ctx, name)
}

// ReplaySaved loads the analysis stored under name and replays it.
func (e *Engine) ReplaySaved(ctx context.Context, name string) error {
	return e.session.ReplaySaved(ctx, name)
}

// Analysis returns the current log in its persisted form.
func (e *Engine) Analysis(name string) (*domain.Analysis, error) {
	return e.session.Analysis(name)
}

// Code returns the script equivalent to the current log.
func (e *Engine) Code(opts ...transpile.Option) (string, error) {
	script, err := e.session.RegenerateCode(opts...)
	if err != nil {
		return "", err
	}
	return script.String(), nil
}

// State returns the current datasets.
func (e *Engine) State() *domain.State {
	return e.session.State()
}

// Describe returns a one line summary per step.
func (e *Engine) Describe() []string {
	return e.session.Describe()
}

// Preview renders dataset i of the current State as a markdown table.
func (e *Engine) Preview(i, maxRows int) (string, error) {
	ds, err := e.session.State().Dataset(i)
	if err != nil {
		return "", err
	}
	return preview.Table(ds, maxRows)
}

// Graph renders the log as a Mermaid flowchart.
func (e *Engine) Graph() string {
	log := e.session.Steps()
	return graph.GenerateMermaid(log, e.session.Describe(), &graph.GraphOverlay{
		Current: len(log) - 1,
		Undone:  e.session.Undone(),
	})
}

// Kinds lists the step kinds the engine accepts.
func (e *Engine) Kinds() []domain.StepKind {
	return e.registry.Kinds()
}

// Session returns the underlying session.
func (e *Engine) Session() *session.Manager {
	return e.session
}
