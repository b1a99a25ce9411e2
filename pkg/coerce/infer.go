package coerce

import (
	"strconv"
	"strings"

	"github.com/aretw0/stepsheet/pkg/domain"
)

// Infer builds a typed column from raw text cells. Empty cells are missing.
// The narrowest dtype that accepts every present cell wins, in the order
// bool, int64, float64, datetime64[ns], object.
func Infer(header domain.ColumnHeader, raw []string) domain.Column {
	samples := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			samples = append(samples, s)
		}
	}

	dtype := inferDtype(samples)
	var format DatetimeFormat
	if dtype == domain.DtypeDatetime {
		format = InferDatetimeFormat(samples)
	}

	values := make([]any, len(raw))
	for i, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		switch dtype {
		case domain.DtypeBool:
			values[i] = strings.EqualFold(s, "true")
		case domain.DtypeInt:
			values[i], _ = strconv.ParseInt(s, 10, 64)
		case domain.DtypeFloat:
			values[i], _ = strconv.ParseFloat(s, 64)
		case domain.DtypeDatetime:
			values[i], _ = format.Parse(s)
		default:
			values[i] = s
		}
	}
	if len(samples) == 0 {
		dtype = domain.DtypeObject
	}
	return domain.Column{Header: header, Dtype: dtype, Values: values}
}

func inferDtype(samples []string) domain.Dtype {
	if len(samples) == 0 {
		return domain.DtypeObject
	}
	switch {
	case all(samples, isBool):
		return domain.DtypeBool
	case all(samples, isInt):
		return domain.DtypeInt
	case all(samples, isFloat):
		return domain.DtypeFloat
	case InferDatetimeFormat(samples).Inferred:
		return domain.DtypeDatetime
	default:
		return domain.DtypeObject
	}
}

func all(samples []string, pred func(string) bool) bool {
	for _, s := range samples {
		if !pred(s) {
			return false
		}
	}
	return true
}

func isBool(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
