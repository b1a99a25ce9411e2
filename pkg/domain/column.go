package domain

import (
	"math"
	"strings"
)

// ColumnID identifies a column for its whole lifetime, independent of renames.
type ColumnID string

// ColumnHeader is the display name of a column.
type ColumnHeader string

// Dtype is the storage representation of a column, named after the pandas
// dtype the generated script would observe.
type Dtype string

const (
	DtypeBool      Dtype = "bool"
	DtypeInt       Dtype = "int64"
	DtypeFloat     Dtype = "float64"
	DtypeObject    Dtype = "object"
	DtypeDatetime  Dtype = "datetime64[ns]"
	DtypeTimedelta Dtype = "timedelta64[ns]"
)

// LogicalType is the storage-independent category a column belongs to.
type LogicalType string

const (
	TypeBoolean   LogicalType = "boolean"
	TypeNumber    LogicalType = "number"
	TypeString    LogicalType = "string"
	TypeTimestamp LogicalType = "timestamp"
	TypeDuration  LogicalType = "duration"
)

// IsInt reports whether the dtype stores integers.
func (d Dtype) IsInt() bool { return strings.Contains(string(d), "int") }

// IsFloat reports whether the dtype stores floating point numbers.
func (d Dtype) IsFloat() bool { return strings.Contains(string(d), "float") }

// Column is one vector of a Dataset.
//
// Values hold bool, int64, float64, string, time.Time or time.Duration
// depending on Dtype; a nil entry is a missing value. A Constant column
// carries a single value that is broadcast to every row.
type Column struct {
	Header   ColumnHeader
	Dtype    Dtype
	Values   []any
	Constant bool
}

// NewColumn builds a column over the given values.
func NewColumn(header ColumnHeader, dtype Dtype, values ...any) Column {
	return Column{Header: header, Dtype: dtype, Values: values}
}

// NewConstantColumn builds a broadcast column holding a single value.
func NewConstantColumn(header ColumnHeader, dtype Dtype, value any) Column {
	return Column{Header: header, Dtype: dtype, Values: []any{value}, Constant: true}
}

// Len returns the number of stored values. Constant columns report one.
func (c Column) Len() int { return len(c.Values) }

// Value returns the value at row i, resolving broadcast for constant columns.
func (c Column) Value(i int) any {
	if c.Constant {
		if len(c.Values) == 0 {
			return nil
		}
		return c.Values[0]
	}
	if i < 0 || i >= len(c.Values) {
		return nil
	}
	return c.Values[i]
}

// IsMissing reports whether the value at row i is missing.
func (c Column) IsMissing(i int) bool {
	return IsMissing(c.Value(i))
}

// Renamed returns a copy of the column with another header. Values are shared.
func (c Column) Renamed(header ColumnHeader) Column {
	c.Header = header
	return c
}

// IsMissing reports whether v is a missing value. NaN floats count as missing.
func IsMissing(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}
