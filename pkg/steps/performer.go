package steps

import (
	"time"

	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/schema"
)

// Performer is the contract every step kind implements.
//
// Execute and Transpile must be pure: they may read prev but never modify it
// or anything reachable from it, and Transpile may only depend on its
// arguments so a log always regenerates the same script.
type Performer interface {
	Kind() domain.StepKind
	Version() int
	// Schema declares the raw parameters the kind accepts.
	Schema() schema.Schema
	// Saturate validates raw and resolves anything that depends on prev.
	Saturate(prev *domain.State, raw map[string]any) (Params, error)
	Execute(prev *domain.State, p Params) (*domain.State, ExecutionData, error)
	Transpile(prev, post *domain.State, exec ExecutionData, p Params) []string
	// Describe renders a one line summary. names may be nil.
	Describe(p Params, names []string) string
	// ModifiedDatasetIndexes may contain NewDatasetIndex.
	ModifiedDatasetIndexes(p Params) []int
}

// Deriver is implemented by kinds that own a derived column and can
// recompute it when their dataset changes upstream.
type Deriver interface {
	DerivedColumn(p Params) (datasetIndex int, header domain.ColumnHeader)
	Recompute(state *domain.State, p Params) (*domain.State, ExecutionData, error)
	TranspileRecompute(post *domain.State, exec ExecutionData, p Params) []string
}

// ColumnWriter is implemented by kinds that overwrite the values of existing
// columns in place.
type ColumnWriter interface {
	WrittenColumns(p Params) (datasetIndex int, headers []domain.ColumnHeader)
}

// ColumnReader is implemented by kinds whose result depends only on some
// columns of their dataset.
type ColumnReader interface {
	ReadColumns(p Params) (datasetIndex int, headers []domain.ColumnHeader, err error)
}

// ExecutionData is produced by Execute and only consumed by Transpile and
// by callers reporting on the step.
type ExecutionData struct {
	ProcessingTime time.Duration    `json:"processing_time"`
	Expression     string           `json:"expression,omitempty"`
	Coercion       *domain.Coercion `json:"coercion,omitempty"`
	DatetimeFormat string           `json:"datetime_format,omitempty"`
	InsertedAt     int              `json:"inserted_at,omitempty"`
	Inserted       bool             `json:"inserted,omitempty"`
}

// Refresh records one derived step recomputed after another step.
type Refresh struct {
	StepIndex int
	Post      *domain.State
	Exec      ExecutionData
}

// Step is one applied entry of the analysis log.
type Step struct {
	ID      string
	Kind    domain.StepKind
	Version int
	Params  Params
	Exec    ExecutionData

	// Prev and Post are the states the step itself saw and produced.
	Prev *domain.State
	Post *domain.State

	// Refreshes are the derived steps recomputed because of this one, in log
	// order. Result is the state once they ran.
	Refreshes []Refresh
	Result    *domain.State
}

// NewStep builds the log entry for a step executed at position. The id only
// depends on the position and the step's content.
func NewStep(position int, perf Performer, p Params, prev, post *domain.State, exec ExecutionData) *Step {
	return &Step{
		ID:      stepID(position, perf.Kind(), perf.Version(), p),
		Kind:    perf.Kind(),
		Version: perf.Version(),
		Params:  p,
		Exec:    exec,
		Prev:    prev,
		Post:    post,
	}
}

// Record returns the persisted form of the step.
func (s *Step) Record() (domain.StepRecord, error) {
	raw, err := EncodeParams(s.Params)
	if err != nil {
		return domain.StepRecord{}, err
	}
	return domain.StepRecord{Kind: s.Kind, Version: s.Version, Params: raw}, nil
}

// Final returns the state after the step and its refreshes.
func (s *Step) Final() *domain.State {
	if s.Result != nil {
		return s.Result
	}
	return s.Post
}
