package domain

import "fmt"

// Dataset is an ordered set of columns over a positional row index.
// A Dataset is never edited once it is reachable from a published State;
// the With* helpers return new values that share untouched columns.
type Dataset struct {
	Columns []Column
	Index   []int64
}

// NewDataset builds a dataset with a default 0..n-1 index, where n is the
// length of the first non-constant column.
func NewDataset(columns ...Column) Dataset {
	n := 0
	for _, c := range columns {
		if !c.Constant {
			n = c.Len()
			break
		}
	}
	return Dataset{Columns: columns, Index: RangeIndex(n)}
}

// RangeIndex returns the labels 0..n-1.
func RangeIndex(n int) []int64 {
	idx := make([]int64, n)
	for i := range idx {
		idx[i] = int64(i)
	}
	return idx
}

// Rows returns the number of rows.
func (d Dataset) Rows() int { return len(d.Index) }

// Headers returns the column headers in order.
func (d Dataset) Headers() []ColumnHeader {
	out := make([]ColumnHeader, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Header
	}
	return out
}

// ColumnIndex returns the position of header, or -1.
func (d Dataset) ColumnIndex(header ColumnHeader) int {
	for i, c := range d.Columns {
		if c.Header == header {
			return i
		}
	}
	return -1
}

// Column returns the column with the given header.
func (d Dataset) Column(header ColumnHeader) (Column, bool) {
	i := d.ColumnIndex(header)
	if i < 0 {
		return Column{}, false
	}
	return d.Columns[i], true
}

// WithColumn returns a copy of the dataset where the column with the same
// header is replaced, or appended at the end when it does not exist.
func (d Dataset) WithColumn(col Column) Dataset {
	cols := make([]Column, len(d.Columns), len(d.Columns)+1)
	copy(cols, d.Columns)
	if i := d.ColumnIndex(col.Header); i >= 0 {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return Dataset{Columns: cols, Index: d.Index}
}

// Validate checks that every non-constant column matches the index length.
func (d Dataset) Validate() error {
	seen := make(map[ColumnHeader]bool, len(d.Columns))
	for _, c := range d.Columns {
		if seen[c.Header] {
			return fmt.Errorf("duplicate column header %q", c.Header)
		}
		seen[c.Header] = true
		if !c.Constant && c.Len() != len(d.Index) {
			return fmt.Errorf("column %q has %d values, index has %d", c.Header, c.Len(), len(d.Index))
		}
	}
	return nil
}
