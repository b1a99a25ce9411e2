package coerce

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepsheet/pkg/domain"
)

// Classify returns the logical type of a column from its dtype.
func Classify(col domain.Column) domain.LogicalType {
	return ClassifyDtype(col.Dtype)
}

// ClassifyDtype maps a storage dtype to a logical type. Unknown dtypes are
// strings.
func ClassifyDtype(d domain.Dtype) domain.LogicalType {
	s := string(d)
	switch {
	case s == "bool":
		return domain.TypeBoolean
	case strings.Contains(s, "int"), strings.Contains(s, "float"):
		return domain.TypeNumber
	case s == "object", s == "str", s == "string":
		return domain.TypeString
	case strings.Contains(s, "datetime"):
		return domain.TypeTimestamp
	case strings.Contains(s, "timedelta"):
		return domain.TypeDuration
	default:
		return domain.TypeString
	}
}

// LogicalTarget reports whether s names a logical type rather than a
// storage dtype. Converting a column to its own logical type leaves it as is,
// so "number" keeps an int64 column int64.
func LogicalTarget(s string) (domain.LogicalType, bool) {
	switch t := domain.LogicalType(strings.ToLower(strings.TrimSpace(s))); t {
	case domain.TypeBoolean, domain.TypeNumber, domain.TypeString, domain.TypeTimestamp, domain.TypeDuration:
		return t, true
	}
	return "", false
}

// ParseTarget resolves a requested target type to the dtype it is stored as.
// It accepts the logical type names as well as the usual pandas spellings;
// "number" is stored as float64.
func ParseTarget(s string) (domain.Dtype, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "bool", "boolean":
		return domain.DtypeBool, nil
	case "int", "int64", "integer":
		return domain.DtypeInt, nil
	case "float", "float64", "number":
		return domain.DtypeFloat, nil
	case "str", "string", "object", "text":
		return domain.DtypeObject, nil
	case "datetime", "datetime64[ns]", "timestamp", "date":
		return domain.DtypeDatetime, nil
	case "timedelta", "timedelta64[ns]", "duration":
		return domain.DtypeTimedelta, nil
	}
	switch {
	case strings.Contains(t, "datetime"):
		return domain.DtypeDatetime, nil
	case strings.Contains(t, "timedelta"):
		return domain.DtypeTimedelta, nil
	case strings.Contains(t, "int"):
		return domain.DtypeInt, nil
	case strings.Contains(t, "float"):
		return domain.DtypeFloat, nil
	}
	return "", fmt.Errorf("unsupported target type %q", s)
}

// kind is the finer grained source category used by the conversion table.
type kind int

const (
	kindBool kind = iota
	kindInt
	kindFloat
	kindString
	kindDatetime
	kindTimedelta
)

func kindOf(d domain.Dtype) kind {
	switch ClassifyDtype(d) {
	case domain.TypeBoolean:
		return kindBool
	case domain.TypeNumber:
		if d.IsInt() {
			return kindInt
		}
		return kindFloat
	case domain.TypeTimestamp:
		return kindDatetime
	case domain.TypeDuration:
		return kindTimedelta
	default:
		return kindString
	}
}
