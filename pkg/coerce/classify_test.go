package coerce_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/pkg/coerce"
	"github.com/aretw0/stepsheet/pkg/domain"
)

func TestClassifyDtype(t *testing.T) {
	tests := map[domain.Dtype]domain.LogicalType{
		"bool":                domain.TypeBoolean,
		"int64":               domain.TypeNumber,
		"uint8":               domain.TypeNumber,
		"float32":             domain.TypeNumber,
		"object":              domain.TypeString,
		"string":              domain.TypeString,
		"datetime64[ns]":      domain.TypeTimestamp,
		"datetime64[ns, UTC]": domain.TypeTimestamp,
		"timedelta64[ns]":     domain.TypeDuration,
		"category":            domain.TypeString,
	}
	for dtype, want := range tests {
		assert.Equal(t, want, coerce.ClassifyDtype(dtype), string(dtype))
	}
}

func TestParseTarget(t *testing.T) {
	tests := map[string]domain.Dtype{
		"boolean":             domain.DtypeBool,
		"int":                 domain.DtypeInt,
		"number":              domain.DtypeFloat,
		"float64":             domain.DtypeFloat,
		"str":                 domain.DtypeObject,
		"timestamp":           domain.DtypeDatetime,
		"datetime64[ns, UTC]": domain.DtypeDatetime,
		"duration":            domain.DtypeTimedelta,
	}
	for in, want := range tests {
		got, err := coerce.ParseTarget(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := coerce.ParseTarget("matrix")
	assert.Error(t, err)
}

func TestNaNIndexes_AnchorSkipsConstants(t *testing.T) {
	constant := domain.NewConstantColumn("k", domain.DtypeInt, int64(2))
	a := domain.NewColumn("A", domain.DtypeFloat, 1.0, nil, 3.0)
	b := domain.NewColumn("B", domain.DtypeFloat, nil, 2.0, 3.0)

	meta := coerce.NaNIndexes(constant, a, b)

	assert.Equal(t, 3, meta.Rows)
	assert.Equal(t, []int{2}, meta.Present)
	assert.Equal(t, []any{3.0}, meta.Forget(a))
	assert.Equal(t, []any{int64(2)}, meta.Forget(constant))
	assert.Equal(t, []any{nil, nil, "x"}, meta.Restore([]any{"x"}))
}

func TestInfer(t *testing.T) {
	tests := []struct {
		name  string
		raw   []string
		dtype domain.Dtype
		want  []any
	}{
		{"ints", []string{"1", "", "3"}, domain.DtypeInt, []any{int64(1), nil, int64(3)}},
		{"floats", []string{"1", "2.5"}, domain.DtypeFloat, []any{1.0, 2.5}},
		{"bools", []string{"true", "FALSE"}, domain.DtypeBool, []any{true, false}},
		{"dates", []string{"2020-01-02"}, domain.DtypeDatetime, []any{date(2020, 1, 2)}},
		{"text", []string{"a", "1"}, domain.DtypeObject, []any{"a", "1"}},
		{"empty", []string{"", ""}, domain.DtypeObject, []any{nil, nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := coerce.Infer("A", tt.raw)
			assert.Equal(t, tt.dtype, col.Dtype)
			assert.Equal(t, tt.want, col.Values)
		})
	}
}
