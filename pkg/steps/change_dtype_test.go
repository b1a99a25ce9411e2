package steps

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/pkg/domain"
)

func TestChangeColumnDtype_FloatToInt(t *testing.T) {
	prev := stateOf(domain.NewDataset(domain.NewColumn("A", domain.DtypeFloat, 1.2, 2.0, 3.0)))

	post, exec, params, p := run(t, prev, KindChangeColumnDtype, map[string]any{
		"datasetIndex": 0, "columnId": "A", "targetType": "int",
	})

	col, _ := post.Datasets[0].Column("A")
	assert.Equal(t, ints(1, 2, 3), col.Values)
	assert.Equal(t, domain.DtypeInt, col.Dtype)

	orig, _ := prev.Datasets[0].Column("A")
	assert.Equal(t, []any{1.2, 2.0, 3.0}, orig.Values, "previous state untouched")

	assert.Equal(t, []string{"df1['A'] = df1['A'].astype('int')"}, p.Transpile(prev, post, exec, params))
	assert.Equal(t, []int{0}, p.ModifiedDatasetIndexes(params))
	assert.Equal(t, "Changed A in df1 to int", p.Describe(params, prev.Names))
	require.NotNil(t, exec.Coercion)
	assert.Equal(t, domain.TypeNumber, exec.Coercion.From)
	assert.Zero(t, exec.Coercion.Failed)
}

func TestChangeColumnDtype_SameTypeEmitsNothing(t *testing.T) {
	prev := stateOf(domain.NewDataset(domain.NewColumn("A", domain.DtypeInt, ints(1)...)))

	post, exec, params, p := run(t, prev, KindChangeColumnDtype, map[string]any{
		"datasetIndex": 0, "columnId": "A", "targetType": "int64",
	})

	assert.Same(t, prev, post)
	assert.Empty(t, p.Transpile(prev, post, exec, params))
}

func TestChangeColumnDtype_LogicalTypeNameKeepsDtype(t *testing.T) {
	prev := stateOf(domain.NewDataset(domain.NewColumn("A", domain.DtypeInt, ints(1, 2, 3)...)))

	post, exec, params, p := run(t, prev, KindChangeColumnDtype, map[string]any{
		"datasetIndex": 0, "columnId": "A", "targetType": "number",
	})

	assert.Same(t, prev, post)
	assert.Empty(t, p.Transpile(prev, post, exec, params))

	post, exec, params, p = run(t, prev, KindChangeColumnDtype, map[string]any{
		"datasetIndex": 0, "columnId": "A", "targetType": "float",
	})
	col, _ := post.Datasets[0].Column("A")
	assert.Equal(t, domain.DtypeFloat, col.Dtype)
	assert.Equal(t, []string{"df1['A'] = df1['A'].astype('float')"}, p.Transpile(prev, post, exec, params))
}

func TestChangeColumnDtype_ReportsFailedConversions(t *testing.T) {
	prev := stateOf(domain.NewDataset(domain.NewColumn("A", domain.DtypeObject, "1", "two", nil)))

	_, exec, _, _ := run(t, prev, KindChangeColumnDtype, map[string]any{
		"datasetIndex": 0, "columnId": "A", "targetType": "number",
	})

	require.NotNil(t, exec.Coercion)
	assert.Equal(t, 1, exec.Coercion.Failed)
}

func TestChangeColumnDtype_DatetimeFallbackIsRecorded(t *testing.T) {
	prev := stateOf(domain.NewDataset(domain.NewColumn("A", domain.DtypeObject, "2/3/2020", "soon")))

	post, exec, params, p := run(t, prev, KindChangeColumnDtype, map[string]any{
		"datasetIndex": 0, "columnId": "A", "targetType": "datetime",
	})

	assert.Equal(t, "%m/%d/%Y", exec.DatetimeFormat)
	assert.Equal(t,
		[]string{"df1['A'] = pd.to_datetime(df1['A'], format='%m/%d/%Y', errors='coerce')"},
		p.Transpile(prev, post, exec, params))
}

func TestChangeColumnDtype_ParameterErrors(t *testing.T) {
	prev := stateOf(domain.NewDataset(domain.NewColumn("A", domain.DtypeInt, ints(1)...)))
	p, _ := New(KindChangeColumnDtype)

	tests := map[string]struct {
		raw map[string]any
		key string
	}{
		"unknown column":  {map[string]any{"datasetIndex": 0, "columnId": "Z", "targetType": "int"}, "columnId"},
		"unknown dataset": {map[string]any{"datasetIndex": 3, "columnId": "A", "targetType": "int"}, "datasetIndex"},
		"bad target":      {map[string]any{"datasetIndex": 0, "columnId": "A", "targetType": "matrix"}, "targetType"},
		"missing key":     {map[string]any{"datasetIndex": 0, "columnId": "A"}, "targetType"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := p.Saturate(prev, tt.raw)
			var perr *domain.ParameterError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.key, perr.Key)
		})
	}
}

func TestEncodeParams_RoundTrip(t *testing.T) {
	prev := stateOf(domain.NewDataset(domain.NewColumn("A", domain.DtypeInt, ints(1)...)))
	p, _ := New(KindChangeColumnDtype)
	params, err := p.Saturate(prev, map[string]any{"datasetIndex": 0, "columnId": "A", "targetType": "str"})
	require.NoError(t, err)

	raw, err := EncodeParams(params)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"datasetIndex": 0, "columnId": "A", "targetType": "str"}, raw)

	again, err := p.Saturate(prev, raw)
	require.NoError(t, err)
	assert.Equal(t, params, again)
}
