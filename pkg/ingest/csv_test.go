package ingest_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/ingest"
)

func TestReadCSV_InfersDtypes(t *testing.T) {
	input := "A,B,C,D\n1,1.5,true,x\n2,,false,y\n3,2,TRUE,\n"

	ds, err := ingest.ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Rows())
	assert.Equal(t, []domain.ColumnHeader{"A", "B", "C", "D"}, ds.Headers())

	a, _ := ds.Column("A")
	assert.Equal(t, domain.DtypeInt, a.Dtype)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, a.Values)

	b, _ := ds.Column("B")
	assert.Equal(t, domain.DtypeFloat, b.Dtype)
	assert.True(t, b.IsMissing(1))

	c, _ := ds.Column("C")
	assert.Equal(t, domain.DtypeBool, c.Dtype)
	assert.Equal(t, []any{true, false, true}, c.Values)

	d, _ := ds.Column("D")
	assert.Equal(t, domain.DtypeObject, d.Dtype)
	assert.True(t, d.IsMissing(2))
}

func TestReadCSV_Options(t *testing.T) {
	t.Run("Delimiter", func(t *testing.T) {
		ds, err := ingest.ReadCSV(strings.NewReader("A;B\n1;2\n"), ingest.WithComma(';'))
		require.NoError(t, err)
		assert.Equal(t, []domain.ColumnHeader{"A", "B"}, ds.Headers())
	})

	t.Run("MaxRows", func(t *testing.T) {
		ds, err := ingest.ReadCSV(strings.NewReader("A\n1\n2\n3\n"), ingest.WithMaxRows(2))
		require.NoError(t, err)
		assert.Equal(t, 2, ds.Rows())
	})

	t.Run("Latin1", func(t *testing.T) {
		raw, err := charmap.ISO8859_1.NewEncoder().String("Name\nJosé\n")
		require.NoError(t, err)

		ds, err := ingest.ReadCSV(strings.NewReader(raw), ingest.WithEncoding(charmap.ISO8859_1))
		require.NoError(t, err)
		col, _ := ds.Column("Name")
		assert.Equal(t, "José", col.Values[0])
	})

	t.Run("ByteOrderMark", func(t *testing.T) {
		ds, err := ingest.ReadCSV(strings.NewReader("\ufeffA\n1\n"))
		require.NoError(t, err)
		assert.Equal(t, []domain.ColumnHeader{"A"}, ds.Headers())
	})
}

func TestReadCSV_Shapes(t *testing.T) {
	t.Run("ShortRowsArePadded", func(t *testing.T) {
		ds, err := ingest.ReadCSV(strings.NewReader("A,B\n1\n2,3\n"))
		require.NoError(t, err)
		b, _ := ds.Column("B")
		assert.True(t, b.IsMissing(0))
		assert.Equal(t, int64(3), b.Values[1])
	})

	t.Run("LongRowsFail", func(t *testing.T) {
		_, err := ingest.ReadCSV(strings.NewReader("A\n1,2\n"))
		assert.ErrorContains(t, err, "header has 1")
	})

	t.Run("HeaderOnly", func(t *testing.T) {
		ds, err := ingest.ReadCSV(strings.NewReader("A,B\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, ds.Rows())
		assert.Len(t, ds.Columns, 2)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ingest.ReadCSV(strings.NewReader(""))
		assert.ErrorIs(t, err, ingest.ErrNoHeader)
	})

	t.Run("BlankHeaderIsNamed", func(t *testing.T) {
		ds, err := ingest.ReadCSV(strings.NewReader(",A\n1,2\n"))
		require.NoError(t, err)
		assert.Equal(t, []domain.ColumnHeader{"Unnamed: 0", "A"}, ds.Headers())
	})

	t.Run("DuplicateHeader", func(t *testing.T) {
		_, err := ingest.ReadCSV(strings.NewReader("A,A\n1,2\n"))
		assert.ErrorContains(t, err, "duplicate")
	})
}

func TestReadCSVFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales-2024.csv")
	require.NoError(t, os.WriteFile(path, []byte("A\n1\n"), 0o644))

	ds, name, err := ingest.ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sales_2024", name)
	assert.Equal(t, 1, ds.Rows())

	_, _, err = ingest.ReadCSVFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestDatasetName(t *testing.T) {
	tests := map[string]string{
		"data/df.csv":    "df",
		"2024 sales.csv": "_2024_sales",
		"a.b.csv":        "a_b",
		".csv":           "df",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ingest.DatasetName(in))
		})
	}
}
