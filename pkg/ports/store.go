package ports

import (
	"context"

	"github.com/aretw0/stepsheet/pkg/domain"
)

// AnalysisStore defines the interface for persisting named analyses.
// Stores receive logs already upgraded to the current step versions.
type AnalysisStore interface {
	// Save persists the analysis under name, replacing any previous one.
	Save(ctx context.Context, name string, analysis *domain.Analysis) error

	// Load retrieves the analysis saved under name.
	// Returns domain.ErrAnalysisNotFound if there is none.
	Load(ctx context.Context, name string) (*domain.Analysis, error)

	// Delete removes the analysis saved under name.
	Delete(ctx context.Context, name string) error

	// List returns the names of every saved analysis.
	List(ctx context.Context) ([]string, error)
}
