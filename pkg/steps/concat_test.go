package steps

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/pkg/domain"
)

func TestConcat_OuterResetIndex(t *testing.T) {
	prev := stateOf(
		domain.NewDataset(domain.NewColumn("A", domain.DtypeInt, ints(1, 2)...)),
		domain.NewDataset(domain.NewColumn("A", domain.DtypeInt, ints(3, 4)...)),
	)

	post, exec, params, p := run(t, prev, KindConcat, map[string]any{
		"join": "outer", "resetIndex": true, "datasetIndexes": []any{0, 1},
	})

	require.Equal(t, 3, post.Len())
	out := post.Datasets[2]
	assert.Equal(t, []any{int64(1), int64(2), int64(3), int64(4)}, out.Columns[0].Values)
	assert.Equal(t, domain.DtypeInt, out.Columns[0].Dtype)
	assert.Equal(t, []int64{0, 1, 2, 3}, out.Index)
	assert.Equal(t, "df3", post.Names[2])
	assert.Equal(t, 2, prev.Len(), "previous state untouched")

	assert.Equal(t,
		[]string{"df3 = pd.concat([df1, df2], join='outer', ignore_index=True)"},
		p.Transpile(prev, post, exec, params))
	assert.Equal(t, []int{NewDatasetIndex}, p.ModifiedDatasetIndexes(params))
	assert.Equal(t, "Concatenated df1, df2 (outer join)", p.Describe(params, post.Names))
}

func TestConcat_KeepsLabelsWithoutReset(t *testing.T) {
	prev := stateOf(
		domain.NewDataset(domain.NewColumn("A", domain.DtypeInt, ints(1, 2)...)),
		domain.NewDataset(domain.NewColumn("A", domain.DtypeInt, ints(3)...)),
	)

	post, _, _, _ := run(t, prev, KindConcat, map[string]any{
		"join": "inner", "datasetIndexes": []any{0, 1},
	})

	assert.Equal(t, []int64{0, 1, 0}, post.Datasets[2].Index)
}

func TestConcat_Joins(t *testing.T) {
	prev := stateOf(
		domain.NewDataset(
			domain.NewColumn("A", domain.DtypeInt, ints(1)...),
			domain.NewColumn("B", domain.DtypeObject, "x"),
		),
		domain.NewDataset(
			domain.NewColumn("A", domain.DtypeFloat, 2.5),
			domain.NewColumn("C", domain.DtypeInt, ints(7)...),
		),
	)

	t.Run("inner intersects columns", func(t *testing.T) {
		post, _, _, _ := run(t, prev, KindConcat, map[string]any{"join": "inner", "datasetIndexes": []any{0, 1}})
		out := post.Datasets[2]
		assert.Equal(t, []domain.ColumnHeader{"A"}, out.Headers())
		assert.Equal(t, domain.DtypeFloat, out.Columns[0].Dtype)
		assert.Equal(t, []any{1.0, 2.5}, out.Columns[0].Values)
	})

	t.Run("outer fills gaps with missing values", func(t *testing.T) {
		post, _, _, _ := run(t, prev, KindConcat, map[string]any{"join": "outer", "datasetIndexes": []any{0, 1}})
		out := post.Datasets[2]
		assert.Equal(t, []domain.ColumnHeader{"A", "B", "C"}, out.Headers())

		b, _ := out.Column("B")
		assert.Equal(t, []any{"x", nil}, b.Values)

		c, _ := out.Column("C")
		assert.Equal(t, domain.DtypeFloat, c.Dtype, "ints with gaps widen to float")
		assert.Equal(t, []any{nil, 7.0}, c.Values)
		assert.NoError(t, out.Validate())
	})
}

func TestConcat_ParameterErrors(t *testing.T) {
	prev := stateOf(domain.NewDataset())
	p, _ := New(KindConcat)

	tests := map[string]map[string]any{
		"no datasets":     {"join": "outer", "datasetIndexes": []any{}},
		"unknown dataset": {"join": "outer", "datasetIndexes": []any{0, 4}},
		"bad join":        {"join": "left", "datasetIndexes": []any{0}},
		"unknown key":     {"join": "outer", "datasetIndexes": []any{0}, "axis": 1},
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := p.Saturate(prev, raw)
			var perr *domain.ParameterError
			assert.True(t, errors.As(err, &perr), "got %v", err)
		})
	}
}

func TestConcat_ExecuteRejectsUnknownDataset(t *testing.T) {
	p, _ := New(KindConcat)

	_, _, err := p.Execute(stateOf(), ConcatParams{Join: JoinOuter, DatasetIndexes: []int{2}})

	var exErr *domain.StepExecutionError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, "dataset 2", exErr.Reference)
}
