package preview

import (
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/aretw0/stepsheet/pkg/coerce"
	"github.com/aretw0/stepsheet/pkg/domain"
)

// Markdown renders at most maxRows rows of rec as a markdown table. A
// non-positive maxRows renders every row.
func Markdown(rec arrow.Record, maxRows int) string {
	rows := int(rec.NumRows())
	shown := rows
	if maxRows > 0 && maxRows < rows {
		shown = maxRows
	}

	var sb strings.Builder
	schema := rec.Schema()
	sb.WriteString("|")
	for _, f := range schema.Fields() {
		name := f.Name
		if name == IndexField {
			name = ""
		}
		sb.WriteString(" " + escape(name) + " |")
	}
	sb.WriteString("\n|")
	for range schema.Fields() {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")

	for i := 0; i < shown; i++ {
		sb.WriteString("|")
		for c := 0; c < int(rec.NumCols()); c++ {
			sb.WriteString(" " + escape(cell(rec.Column(c), i)) + " |")
		}
		sb.WriteString("\n")
	}
	if shown < rows {
		sb.WriteString(fmt.Sprintf("\n%d of %d rows\n", shown, rows))
	}
	return sb.String()
}

// Table renders ds directly.
func Table(ds domain.Dataset, maxRows int) (string, error) {
	rec, err := ToRecord(memory.NewGoAllocator(), ds)
	if err != nil {
		return "", err
	}
	defer rec.Release()
	return Markdown(rec, maxRows), nil
}

func cell(arr arrow.Array, i int) string {
	if arr.IsNull(i) {
		return "NaN"
	}
	switch a := arr.(type) {
	case *array.Float64:
		return coerce.FormatFloat(a.Value(i))
	case *array.Boolean:
		return coerce.FormatValue(a.Value(i))
	case *array.Timestamp:
		return coerce.FormatDatetime(time.Unix(0, int64(a.Value(i))).UTC())
	case *array.Duration:
		return coerce.FormatTimedelta(time.Duration(a.Value(i)))
	case *array.String:
		return a.Value(i)
	default:
		return arr.ValueStr(i)
	}
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
