package steps

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/pkg/domain"
)

// run saturates and executes one step, failing the test on error.
func run(t *testing.T, prev *domain.State, kind domain.StepKind, raw map[string]any) (*domain.State, ExecutionData, Params, Performer) {
	t.Helper()
	p, err := New(kind)
	require.NoError(t, err)
	params, err := p.Saturate(prev, raw)
	require.NoError(t, err)
	post, exec, err := p.Execute(prev, params)
	require.NoError(t, err)
	return post, exec, params, p
}

func stateOf(datasets ...domain.Dataset) *domain.State {
	return domain.NewState(datasets, nil)
}

func ints(v ...int64) []any {
	out := make([]any, len(v))
	for i, x := range v {
		out[i] = x
	}
	return out
}
