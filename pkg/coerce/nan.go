package coerce

import "github.com/aretw0/stepsheet/pkg/domain"

// NaNIndex remembers where values are missing across one or more columns.
//
// Rows is the positional length of the anchor column, the first input that is
// not a constant broadcast. Present lists the positions holding a value in
// every input.
type NaNIndex struct {
	Rows    int
	Present []int
}

// NaNIndexes computes the metadata for cols. With only constant columns the
// first one anchors a single row.
func NaNIndexes(cols ...domain.Column) NaNIndex {
	if len(cols) == 0 {
		return NaNIndex{}
	}
	anchor := cols[0]
	for _, c := range cols {
		if !c.Constant {
			anchor = c
			break
		}
	}
	rows := anchor.Len()
	present := make([]int, 0, rows)
	for i := 0; i < rows; i++ {
		missing := false
		for _, c := range cols {
			if c.IsMissing(i) {
				missing = true
				break
			}
		}
		if !missing {
			present = append(present, i)
		}
	}
	return NaNIndex{Rows: rows, Present: present}
}

// Forget returns the values of col at the present positions.
func (m NaNIndex) Forget(col domain.Column) []any {
	out := make([]any, len(m.Present))
	for i, pos := range m.Present {
		out[i] = col.Value(pos)
	}
	return out
}

// Restore spreads values, one per present position, back onto the anchor
// rows. Every other position is missing.
func (m NaNIndex) Restore(values []any) []any {
	out := make([]any, m.Rows)
	for i, pos := range m.Present {
		if i < len(values) {
			out[pos] = values[i]
		}
	}
	return out
}
