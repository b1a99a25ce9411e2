package coerce_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/pkg/coerce"
	"github.com/aretw0/stepsheet/pkg/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestConvert_DateStrings(t *testing.T) {
	inferred := "pd.to_datetime(df1['A'], infer_datetime_format=True, errors='coerce')"
	tests := []struct {
		name string
		in   []any
		want []any
	}{
		{"dash month first", []any{"1-1-2020", "1-20-2020"}, []any{date(2020, 1, 1), date(2020, 1, 20)}},
		{"iso short", []any{"2020-12-20", "2020-12-1"}, []any{date(2020, 12, 20), date(2020, 12, 1)}},
		{"slash", []any{"4/14/2015", "4/15/2015"}, []any{date(2015, 4, 14), date(2015, 4, 15)}},
		{"offset", []any{"2016-01-31T19:29:50.000+0000"}, []any{time.Date(2016, 1, 31, 19, 29, 50, 0, time.UTC)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := coerce.Convert(domain.NewColumn("A", domain.DtypeObject, tt.in...), domain.DtypeDatetime, colA)
			require.NoError(t, err)

			assert.Equal(t, tt.want, res.Column.Values)
			assert.Equal(t, inferred, res.Expression)
			assert.Zero(t, res.Failed)
		})
	}
}

func TestInferDatetimeFormat_Fallback(t *testing.T) {
	t.Run("slash in first sample", func(t *testing.T) {
		f := coerce.InferDatetimeFormat([]string{"3/4/2021", "garbage"})
		assert.False(t, f.Inferred)
		assert.Equal(t, "%m/%d/%Y", f.Strftime)

		got, ok := f.Parse("3/4/2021")
		require.True(t, ok)
		assert.Equal(t, date(2021, 3, 4), got)
	})

	t.Run("anything else is dash", func(t *testing.T) {
		f := coerce.InferDatetimeFormat([]string{"3-4-2021", "garbage"})
		assert.False(t, f.Inferred)
		assert.Equal(t, "%m-%d-%Y", f.Strftime)
	})
}

func TestConvert_DatetimeFallbackCountsFailures(t *testing.T) {
	in := domain.NewColumn("A", domain.DtypeObject, "3/4/2021", nil, "13/45/2021")

	res, err := coerce.Convert(in, domain.DtypeDatetime, colA)
	require.NoError(t, err)

	assert.Equal(t, []any{date(2021, 3, 4), nil, nil}, res.Column.Values)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, "pd.to_datetime(df1['A'], format='%m/%d/%Y', errors='coerce')", res.Expression)
	require.NotNil(t, res.Datetime)
	assert.Equal(t, "%m/%d/%Y", res.Datetime.Strftime)
}

func TestTimedeltaText(t *testing.T) {
	tests := []struct {
		d    time.Duration
		text string
	}{
		{100 * time.Second, "0 days 00:01:40"},
		{26 * time.Hour, "1 days 02:00:00"},
		{-time.Second, "-1 days +23:59:59"},
		{1500 * time.Millisecond, "0 days 00:00:01.500000"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.text, coerce.FormatTimedelta(tt.d))

			back, ok := coerce.ParseTimedelta(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.d, back)
		})
	}

	d, ok := coerce.ParseTimedelta("1h30m")
	require.True(t, ok)
	assert.Equal(t, 90*time.Minute, d)

	_, ok = coerce.ParseTimedelta("soon")
	assert.False(t, ok)
}
