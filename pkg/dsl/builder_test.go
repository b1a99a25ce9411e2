package dsl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/dsl"
	"github.com/aretw0/stepsheet/pkg/registry"
	"github.com/aretw0/stepsheet/pkg/session"
	"github.com/aretw0/stepsheet/pkg/steps"
)

func TestBuilder_Build(t *testing.T) {
	a, err := dsl.New("monthly").
		ChangeDtype(0, "S", "float").
		Formula(0, "B", "=S + 1").
		Concat(steps.JoinOuter, true, 0, 0).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "monthly", a.Name)
	require.Len(t, a.Steps, 3)
	assert.Equal(t, steps.KindChangeColumnDtype, a.Steps[0].Kind)
	assert.Equal(t, 1, a.Steps[0].Version)
	assert.Equal(t, "S", a.Steps[0].Params["columnId"])
	assert.Equal(t, steps.KindSetColumnFormula, a.Steps[1].Kind)
	assert.Equal(t, []int{0, 0}, a.Steps[2].Params["datasetIndexes"])
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("UnknownKind", func(t *testing.T) {
		_, err := dsl.New("x").Step("pivot", nil).Build()
		assert.ErrorIs(t, err, domain.ErrUnknownStepKind)
	})

	t.Run("BadJoin", func(t *testing.T) {
		_, err := dsl.New("x").Concat("left", false, 0).Build()
		assert.ErrorContains(t, err, "step 0 (concat)")
	})

	t.Run("EmptyConcat", func(t *testing.T) {
		_, err := dsl.New("x").Concat(steps.JoinInner, false).Build()
		assert.Error(t, err)
	})

	t.Run("CollectsAll", func(t *testing.T) {
		_, err := dsl.New("x").Formula(0, "", "=A").Formula(0, "B", " ").Build()
		require.Error(t, err)
		assert.ErrorContains(t, err, "step 0")
		assert.ErrorContains(t, err, "step 1")
	})

	t.Run("MustBuildPanics", func(t *testing.T) {
		assert.Panics(t, func() { dsl.New("x").Step("pivot", nil).MustBuild() })
	})
}

func TestBuilder_Replays(t *testing.T) {
	initial := domain.NewState([]domain.Dataset{
		domain.NewDataset(domain.NewColumn("S", domain.DtypeObject, "1", "2")),
	}, nil)
	m := session.NewManager(registry.MustNew(), initial)

	a := dsl.New("demo").
		ChangeDtype(0, "S", "int").
		Formula(0, "B", "=S + 1").
		MustBuild()
	require.NoError(t, m.ReplayAnalysis(context.Background(), a))

	ds, err := m.State().Dataset(0)
	require.NoError(t, err)
	b, ok := ds.Column("B")
	require.True(t, ok)
	assert.Equal(t, []any{int64(2), int64(3)}, b.Values)
	assert.Len(t, m.Steps(), 2)
}
