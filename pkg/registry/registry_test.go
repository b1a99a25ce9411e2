package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/registry"
	"github.com/aretw0/stepsheet/pkg/steps"
)

func TestRegistry_HoldsEveryKind(t *testing.T) {
	r, err := registry.New()
	require.NoError(t, err)

	assert.Equal(t, steps.Kinds(), r.Kinds())
	for _, kind := range r.Kinds() {
		p, err := r.Lookup(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, p.Kind())
		assert.NotEmpty(t, r.Schemas()[kind])
	}
}

func TestRegistry_UnknownKind(t *testing.T) {
	r := registry.MustNew()

	_, err := r.Lookup("pivot")
	assert.True(t, errors.Is(err, domain.ErrUnknownStepKind))
}
