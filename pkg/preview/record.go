package preview

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/aretw0/stepsheet/pkg/coerce"
	"github.com/aretw0/stepsheet/pkg/domain"
)

// IndexField names the row index column that leads every record.
const IndexField = "__index__"

// arrowType maps a dtype to its Arrow type. Object columns are rendered as
// strings.
func arrowType(d domain.Dtype) arrow.DataType {
	switch {
	case d == domain.DtypeBool:
		return arrow.FixedWidthTypes.Boolean
	case d.IsInt():
		return arrow.PrimitiveTypes.Int64
	case d.IsFloat():
		return arrow.PrimitiveTypes.Float64
	case d == domain.DtypeDatetime:
		return arrow.FixedWidthTypes.Timestamp_ns
	case d == domain.DtypeTimedelta:
		return arrow.FixedWidthTypes.Duration_ns
	default:
		return arrow.BinaryTypes.String
	}
}

// ToRecord converts ds into a record whose first column is the row index.
// The caller owns the record and must Release it.
func ToRecord(mem memory.Allocator, ds domain.Dataset) (arrow.Record, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	rows := ds.Rows()

	fields := make([]arrow.Field, 0, len(ds.Columns)+1)
	cols := make([]arrow.Array, 0, len(ds.Columns)+1)
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	index := array.NewInt64Builder(mem)
	defer index.Release()
	index.AppendValues(ds.Index, nil)
	fields = append(fields, arrow.Field{Name: IndexField, Type: arrow.PrimitiveTypes.Int64})
	cols = append(cols, index.NewArray())

	for _, col := range ds.Columns {
		typ := arrowType(col.Dtype)
		arr, err := buildArray(mem, typ, col, rows)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Header, err)
		}
		fields = append(fields, arrow.Field{Name: string(col.Header), Type: typ, Nullable: true})
		cols = append(cols, arr)
	}

	schema := arrow.NewSchema(fields, nil)
	return array.NewRecord(schema, cols, int64(rows)), nil
}

func buildArray(mem memory.Allocator, typ arrow.DataType, col domain.Column, rows int) (arrow.Array, error) {
	builder := array.NewBuilder(mem, typ)
	defer builder.Release()

	for i := 0; i < rows; i++ {
		v := col.Value(i)
		if domain.IsMissing(v) {
			builder.AppendNull()
			continue
		}
		if err := appendValue(builder, v); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return builder.NewArray(), nil
}

func appendValue(builder array.Builder, v any) error {
	switch b := builder.(type) {
	case *array.BooleanBuilder:
		x, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		b.Append(x)
	case *array.Int64Builder:
		if x, ok := v.(int64); ok {
			b.Append(x)
			break
		}
		x, ok := coerce.AsFloat(v)
		if !ok {
			return fmt.Errorf("expected integer, got %T", v)
		}
		b.Append(int64(x))
	case *array.Float64Builder:
		x, ok := coerce.AsFloat(v)
		if !ok {
			return fmt.Errorf("expected number, got %T", v)
		}
		b.Append(x)
	case *array.TimestampBuilder:
		x, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("expected time, got %T", v)
		}
		b.Append(arrow.Timestamp(x.UnixNano()))
	case *array.DurationBuilder:
		x, ok := v.(time.Duration)
		if !ok {
			return fmt.Errorf("expected duration, got %T", v)
		}
		b.Append(arrow.Duration(x.Nanoseconds()))
	case *array.StringBuilder:
		b.Append(coerce.FormatValue(v))
	default:
		return fmt.Errorf("unsupported builder %T", builder)
	}
	return nil
}
