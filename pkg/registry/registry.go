package registry

import (
	"fmt"

	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/schema"
	"github.com/aretw0/stepsheet/pkg/steps"
)

// Registry resolves step kinds to their performers.
// It is built once at start-up and passed to every session that needs it;
// there is no package-level default.
type Registry struct {
	kinds      []domain.StepKind
	performers map[domain.StepKind]steps.Performer
}

// New creates a registry holding every known step kind.
func New() (*Registry, error) {
	r := &Registry{performers: make(map[domain.StepKind]steps.Performer)}
	for _, kind := range steps.Kinds() {
		p, err := steps.New(kind)
		if err != nil {
			return nil, err
		}
		if p.Kind() != kind {
			return nil, fmt.Errorf("performer for %q reports kind %q", kind, p.Kind())
		}
		r.kinds = append(r.kinds, kind)
		r.performers[kind] = p
	}
	return r, nil
}

// MustNew is New for start-up code, panicking on an inconsistent build.
func MustNew() *Registry {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the performer for kind.
func (r *Registry) Lookup(kind domain.StepKind) (steps.Performer, error) {
	p, ok := r.performers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStepKind, kind)
	}
	return p, nil
}

// Kinds returns the registered kinds in a stable order.
func (r *Registry) Kinds() []domain.StepKind {
	return append([]domain.StepKind(nil), r.kinds...)
}

// Schemas returns the parameter schema of every kind.
func (r *Registry) Schemas() map[domain.StepKind]schema.Schema {
	out := make(map[domain.StepKind]schema.Schema, len(r.performers))
	for kind, p := range r.performers {
		out[kind] = p.Schema()
	}
	return out
}
