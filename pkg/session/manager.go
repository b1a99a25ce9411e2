package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/stepsheet/internal/logging"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/ports"
	"github.com/aretw0/stepsheet/pkg/registry"
	"github.com/aretw0/stepsheet/pkg/steps"
	"github.com/aretw0/stepsheet/pkg/transpile"
)

// ErrNoStore is returned by the named analysis operations when the Manager
// was built without an AnalysisStore.
var ErrNoStore = errors.New("no analysis store configured")

// ErrNoAnalysis is the cause of the ReplayError returned when
// ReplayAnalysis is given a nil analysis.
var ErrNoAnalysis = errors.New("no analysis to replay")

// Status is the position of the Manager in its state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusApplying
	StatusReplaying
	StatusRolledBack
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusApplying:
		return "applying"
	case StatusReplaying:
		return "replaying"
	case StatusRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Manager owns the Analysis Log of one session and the State it produces.
// Every exported method takes the same lock, so at most one mutation is in
// flight and readers never observe a half applied step.
type Manager struct {
	registry *registry.Registry
	initial  *domain.State

	mu       sync.Mutex
	status   Status
	log      []*steps.Step
	undone   []domain.StepRecord // most recently undone last
	analysis string

	store  ports.AnalysisStore
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithStore enables SaveAnalysis and ReplaySaved.
func WithStore(store ports.AnalysisStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// NewManager creates a session over the initial datasets held by initial.
// A nil initial state starts the session with no datasets.
func NewManager(reg *registry.Registry, initial *domain.State, opts ...Option) *Manager {
	if initial == nil {
		initial = domain.NewState(nil, nil)
	}
	m := &Manager{
		registry: reg,
		initial:  initial,
		logger:   logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status reports where the Manager is in its state machine.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// State returns the current State.
func (m *Manager) State() *domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return current(m.initial, m.log)
}

// Initial returns the State the log is replayed from.
func (m *Manager) Initial() *domain.State {
	return m.initial
}

// Steps returns a copy of the Analysis Log.
func (m *Manager) Steps() []*steps.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.log)
}

// Undone returns the kinds Redo would reapply, next one last.
func (m *Manager) Undone() []domain.StepKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]domain.StepKind, len(m.undone))
	for i, rec := range m.undone {
		kinds[i] = rec.Kind
	}
	return kinds
}

// Registry returns the step registry the Manager resolves kinds with.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// AnalysisName returns the name of the last replayed or saved analysis.
func (m *Manager) AnalysisName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analysis
}

// Analysis returns the persisted form of the current log.
func (m *Manager) Analysis(name string) (*domain.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return records(name, m.log)
}

// Apply saturates and executes one step against the current State and
// appends it to the log. On failure nothing changes and the error of the
// failing phase is returned as is.
func (m *Manager) Apply(ctx context.Context, kind domain.StepKind, raw map[string]any) (*steps.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status = StatusApplying
	defer func() { m.status = StatusIdle }()

	step, err := m.applyLocked(ctx, kind, raw)
	if err != nil {
		return nil, err
	}
	m.undone = nil
	return step, nil
}

func (m *Manager) applyLocked(ctx context.Context, kind domain.StepKind, raw map[string]any) (*steps.Step, error) {
	index := len(m.log)
	step, err := m.execute(m.log, kind, raw)
	if err != nil {
		var pe *phaseError
		phase := ""
		if errors.As(err, &pe) {
			phase, err = pe.phase, pe.err
		}
		m.logger.Warn("Step failed",
			"index", index,
			"kind", kind,
			"phase", phase,
			"err", err,
		)
		if m.hooks.OnStepFailed != nil {
			m.hooks.OnStepFailed(ctx, &domain.StepEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepFailed},
				Index:     index,
				Kind:      kind,
				Phase:     phase,
				Err:       err,
			})
		}
		return nil, err
	}

	m.log = append(m.log, step)
	m.logger.Debug("Step applied",
		"index", index,
		"kind", kind,
		"id", step.ID,
		"refreshed", len(step.Refreshes),
		"duration", step.Exec.ProcessingTime,
	)
	if m.hooks.OnStepApplied != nil {
		m.hooks.OnStepApplied(ctx, &domain.StepEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepApplied},
			Index:     index,
			Kind:      kind,
			Duration:  step.Exec.ProcessingTime,
			Coercion:  step.Exec.Coercion,
		})
	}
	return step, nil
}

// Undo removes the last step and rebuilds the log from the initial State.
func (m *Manager) Undo(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.log) == 0 {
		return domain.ErrNothingToUndo
	}
	last, err := m.log[len(m.log)-1].Record()
	if err != nil {
		return err
	}
	if err := m.rebuildLocked(ctx, len(m.log)-1); err != nil {
		return err
	}
	m.undone = append(m.undone, last)
	m.logger.Info("Step undone", "kind", last.Kind, "steps", len(m.log))
	m.emitHistory(ctx, domain.EventUndo)
	return nil
}

// Redo applies the most recently undone step again.
func (m *Manager) Redo(ctx context.Context) (*steps.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undone) == 0 {
		return nil, domain.ErrNothingToRedo
	}
	rec := m.undone[len(m.undone)-1]

	m.status = StatusApplying
	defer func() { m.status = StatusIdle }()

	step, err := m.applyLocked(ctx, rec.Kind, rec.Params)
	if err != nil {
		return nil, err
	}
	m.undone = m.undone[:len(m.undone)-1]
	m.logger.Info("Step redone", "kind", rec.Kind, "steps", len(m.log))
	m.emitHistory(ctx, domain.EventRedo)
	return step, nil
}

// Clear empties the log, going back to the initial State.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log = nil
	m.undone = nil
	m.analysis = ""
	m.status = StatusIdle
	m.logger.Info("Analysis cleared")
	m.emitHistory(ctx, domain.EventClear)
}

// rebuildLocked replays the first n steps of the log from the initial State.
func (m *Manager) rebuildLocked(ctx context.Context, n int) error {
	recs, err := records("", m.log[:n])
	if err != nil {
		return err
	}
	log, _, err := m.replay(recs.Steps)
	if err != nil {
		// The prefix replayed before, so this only happens if a step is
		// not deterministic.
		return fmt.Errorf("rebuild analysis: %w", err)
	}
	m.log = log
	return nil
}

// ReplayAnalysis replaces the log with analysis, replayed from the initial
// State. If any step fails the session is left exactly as it was and a
// *domain.ReplayError wrapping that single failure is returned.
func (m *Manager) ReplayAnalysis(ctx context.Context, analysis *domain.Analysis) error {
	if analysis == nil {
		return &domain.ReplayError{StepIndex: -1, Err: ErrNoAnalysis}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replayLocked(ctx, analysis)
}

func (m *Manager) replayLocked(ctx context.Context, analysis *domain.Analysis) error {
	start := time.Now()
	m.status = StatusReplaying

	log, failedAt, err := m.replay(analysis.Steps)
	if err != nil {
		// The previous log and status were never touched, which is the
		// rollback.
		m.status = StatusRolledBack
		kind := analysis.Steps[failedAt].Kind
		m.logger.Error("Replay failed",
			"analysis", analysis.Name,
			"step_index", failedAt,
			"kind", kind,
			"err", err,
		)
		rerr := &domain.ReplayError{Analysis: analysis.Name, StepIndex: failedAt, Kind: kind, Err: err}
		m.emitReplay(ctx, analysis, start, rerr)
		return rerr
	}

	m.log = log
	m.undone = nil
	m.analysis = analysis.Name
	m.status = StatusIdle
	m.logger.Info("Analysis replayed", "analysis", analysis.Name, "steps", len(log))
	m.emitReplay(ctx, analysis, start, nil)
	return nil
}

// replay executes recs from the initial State into a fresh log. On failure
// it reports the index of the failing record.
func (m *Manager) replay(recs []domain.StepRecord) ([]*steps.Step, int, error) {
	log := make([]*steps.Step, 0, len(recs))
	for i, rec := range recs {
		perf, err := m.registry.Lookup(rec.Kind)
		if err != nil {
			return nil, i, err
		}
		if rec.Version != 0 && rec.Version != perf.Version() {
			return nil, i, fmt.Errorf("%s: step version %d, want %d", rec.Kind, rec.Version, perf.Version())
		}
		step, err := m.execute(log, rec.Kind, rec.Params)
		if err != nil {
			var pe *phaseError
			if errors.As(err, &pe) {
				err = pe.err
			}
			return nil, i, err
		}
		log = append(log, step)
	}
	return log, 0, nil
}

// SaveAnalysis writes the current log to the store under name.
func (m *Manager) SaveAnalysis(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return ErrNoStore
	}
	analysis, err := records(name, m.log)
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, name, analysis); err != nil {
		return fmt.Errorf("save analysis %q: %w", name, err)
	}
	m.analysis = name
	return nil
}

// ReplaySaved loads the analysis saved under name and replays it. A missing
// name fails with domain.ErrAnalysisNotFound and changes nothing.
func (m *Manager) ReplaySaved(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return ErrNoStore
	}
	analysis, err := m.store.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("load analysis %q: %w", name, err)
	}
	if analysis.Name == "" {
		analysis.Name = name
	}
	return m.replayLocked(ctx, analysis)
}

// RegenerateCode transpiles the current log. It reads nothing but the log,
// so repeated calls return the same script.
func (m *Manager) RegenerateCode(opts ...transpile.Option) (transpile.Script, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return transpile.Transpile(m.registry, m.log, opts...)
}

// Describe returns one line per step, in log order, using the current
// dataset names.
func (m *Manager) Describe() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := current(m.initial, m.log).Names
	out := make([]string, 0, len(m.log))
	for _, step := range m.log {
		perf, err := m.registry.Lookup(step.Kind)
		if err != nil {
			continue
		}
		out = append(out, perf.Describe(step.Params, names))
	}
	return out
}

// Diff reports what the last step changed, or nil on an empty log.
func (m *Manager) Diff() *domain.StateDiff {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.log) == 0 {
		return nil
	}
	last := m.log[len(m.log)-1]
	return domain.Diff(last.Prev, last.Final())
}

func (m *Manager) emitHistory(ctx context.Context, typ domain.EventType) {
	if m.hooks.OnHistory == nil {
		return
	}
	m.hooks.OnHistory(ctx, &domain.HistoryEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
		Steps:     len(m.log),
	})
}

func (m *Manager) emitReplay(ctx context.Context, analysis *domain.Analysis, start time.Time, err error) {
	if m.hooks.OnReplay == nil {
		return
	}
	m.hooks.OnReplay(ctx, &domain.ReplayEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventReplay},
		Analysis:  analysis.Name,
		Steps:     len(analysis.Steps),
		Duration:  time.Since(start),
		Err:       err,
	})
}

func current(initial *domain.State, log []*steps.Step) *domain.State {
	if len(log) == 0 {
		return initial
	}
	return log[len(log)-1].Final()
}

func records(name string, log []*steps.Step) (*domain.Analysis, error) {
	analysis := &domain.Analysis{Name: name, Steps: make([]domain.StepRecord, 0, len(log))}
	for _, step := range log {
		rec, err := step.Record()
		if err != nil {
			return nil, err
		}
		analysis.Steps = append(analysis.Steps, rec)
	}
	return analysis, nil
}
