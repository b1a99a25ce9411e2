package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/schema"
	"github.com/aretw0/stepsheet/pkg/steps"
)

// Builder accumulates step records in order.
type Builder struct {
	name    string
	records []domain.StepRecord
}

// New starts an analysis with the given name.
func New(name string) *Builder {
	return &Builder{name: name}
}

// Step appends a record of any kind. The version is the current version of
// the kind, or 0 when the kind is unknown; Build reports the latter.
func (b *Builder) Step(kind domain.StepKind, params map[string]any) *Builder {
	version := 0
	if perf, err := steps.New(kind); err == nil {
		version = perf.Version()
	}
	b.records = append(b.records, domain.StepRecord{Kind: kind, Version: version, Params: params})
	return b
}

// Concat stacks the given datasets into a new one.
func (b *Builder) Concat(join string, resetIndex bool, datasetIndexes ...int) *Builder {
	return b.Step(steps.KindConcat, map[string]any{
		"join":           join,
		"resetIndex":     resetIndex,
		"datasetIndexes": datasetIndexes,
	})
}

// ChangeDtype converts a column to targetType.
func (b *Builder) ChangeDtype(datasetIndex int, columnID, targetType string) *Builder {
	return b.Step(steps.KindChangeColumnDtype, map[string]any{
		"datasetIndex": datasetIndex,
		"columnId":     columnID,
		"targetType":   targetType,
	})
}

// Formula sets header to the value of formula.
func (b *Builder) Formula(datasetIndex int, header, formula string) *Builder {
	return b.Step(steps.KindSetColumnFormula, map[string]any{
		"datasetIndex": datasetIndex,
		"columnHeader": header,
		"formula":      formula,
	})
}

// Build checks every record against the schema of its kind and returns the
// analysis. Checks that need the datasets happen at replay time.
func (b *Builder) Build() (*domain.Analysis, error) {
	var errs []error
	for i, rec := range b.records {
		perf, err := steps.New(rec.Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i, err))
			continue
		}
		if err := schema.Validate(perf.Schema(), rec.Params); err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s): %w", i, rec.Kind, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	out := &domain.Analysis{Name: b.name, Steps: make([]domain.StepRecord, len(b.records))}
	copy(out.Steps, b.records)
	return out, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *domain.Analysis {
	a, err := b.Build()
	if err != nil {
		panic(err)
	}
	return a
}
