package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/aretw0/stepsheet/pkg/domain"
)

// Store implements ports.AnalysisStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Analysis
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Analysis),
	}
}

// Save keeps a copy of the analysis.
func (s *Store) Save(ctx context.Context, name string, analysis *domain.Analysis) error {
	copied := clone(analysis)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = copied
	return nil
}

// Load returns a copy of the saved analysis.
func (s *Store) Load(ctx context.Context, name string) (*domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	analysis, ok := s.data[name]
	if !ok {
		return nil, domain.ErrAnalysisNotFound
	}
	// Copy on read so callers can't mutate the store through the pointer
	return clone(analysis), nil
}

// Delete removes the analysis.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns the saved names in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// clone copies the records and their top level parameter maps.
func clone(a *domain.Analysis) *domain.Analysis {
	out := &domain.Analysis{Name: a.Name, Steps: make([]domain.StepRecord, len(a.Steps))}
	for i, rec := range a.Steps {
		rec.Params = maps.Clone(rec.Params)
		out.Steps[i] = rec
	}
	return out
}
