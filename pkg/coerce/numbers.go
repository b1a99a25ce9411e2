package coerce

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Suffixes are checked longest first so "Mil" wins over "M".
var magnitudeSuffixes = []struct {
	suffix string
	factor float64
}{
	{"Billion", 1e9}, {"billion", 1e9},
	{"Million", 1e6}, {"million", 1e6},
	{"Bil", 1e9}, {"bil", 1e9},
	{"Mil", 1e6}, {"mil", 1e6},
	{"B", 1e9}, {"b", 1e9},
	{"M", 1e6}, {"m", 1e6},
}

var currencyStripper = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "", " ", "")

// ParseNumber parses a user-entered number. It understands currency symbols,
// thousands separators, accounting negatives such as "(3.2)" and magnitude
// suffixes such as "1.5M".
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	factor := 1.0
	for _, m := range magnitudeSuffixes {
		if strings.HasSuffix(s, m.suffix) {
			s = strings.TrimSuffix(s, m.suffix)
			factor = m.factor
			break
		}
	}
	s = currencyStripper.Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	f *= factor
	if negative {
		f = -f
	}
	return f, true
}

var (
	truthy = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true, "1.0": true}
	falsy  = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true, "0.0": true}
)

// ParseBool parses a user-entered boolean. Unrecognised text is false and
// reported as not ok.
func ParseBool(s string) (value bool, ok bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	if truthy[t] {
		return true, true
	}
	return false, falsy[t]
}

// FormatFloat renders f the way Python's repr does, which is what a pandas
// astype('str') produces.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	abs := math.Abs(f)
	if abs >= 1e16 || abs < 1e-4 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
