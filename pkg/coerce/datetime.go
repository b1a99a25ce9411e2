package coerce

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datetimeLayouts are tried in order; the first one that parses every sample
// is accepted. Month-first layouts come before day-first ones.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-1-2",
	"2006/1/2",
	"2006/01/02 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"1-2-2006",
	"02.01.2006",
	"2-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// Fallback layouts, chosen by the separator of the first sample when no
// inferred layout fits. Day/month ambiguity is not resolved.
const (
	slashLayout   = "1/2/2006"
	slashStrftime = "%m/%d/%Y"
	dashLayout    = "1-2-2006"
	dashStrftime  = "%m-%d-%Y"
)

// DatetimeFormat decides how a column of strings is parsed as datetimes.
// Inferred is true when one layout parses every sample; otherwise Layout is
// one of the two month-first fallbacks and Strftime its pandas spelling.
type DatetimeFormat struct {
	Layout   string
	Strftime string
	Inferred bool
}

// InferDatetimeFormat picks the layout for samples, which must not contain
// missing values.
func InferDatetimeFormat(samples []string) DatetimeFormat {
	for _, layout := range datetimeLayouts {
		if parsesAll(layout, samples) {
			return DatetimeFormat{Layout: layout, Inferred: true}
		}
	}
	if len(samples) > 0 && strings.Contains(samples[0], "/") {
		return DatetimeFormat{Layout: slashLayout, Strftime: slashStrftime}
	}
	return DatetimeFormat{Layout: dashLayout, Strftime: dashStrftime}
}

func parsesAll(layout string, samples []string) bool {
	for _, s := range samples {
		if _, err := time.Parse(layout, strings.TrimSpace(s)); err != nil {
			return false
		}
	}
	return true
}

// Parse parses s with the chosen layout.
func (f DatetimeFormat) Parse(s string) (time.Time, bool) {
	t, err := time.Parse(f.Layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// FormatDatetime renders t as strftime('%Y-%m-%d %X').
func FormatDatetime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// FormatTimedelta renders d the way pandas prints a Timedelta, for example
// "0 days 00:01:40" or "-1 days +23:59:59".
func FormatTimedelta(d time.Duration) string {
	day := 24 * time.Hour
	days := int64(d / day)
	rem := d % day
	if rem < 0 {
		days--
		rem += day
	}
	h := rem / time.Hour
	rem -= h * time.Hour
	m := rem / time.Minute
	rem -= m * time.Minute
	s := rem / time.Second
	ns := int64(rem - s*time.Second)

	sign := ""
	if days < 0 {
		sign = "+"
	}
	out := fmt.Sprintf("%d days %s%02d:%02d:%02d", days, sign, h, m, s)
	switch {
	case ns == 0:
	case ns%1000 == 0:
		out += fmt.Sprintf(".%06d", ns/1000)
	default:
		out += fmt.Sprintf(".%09d", ns)
	}
	return out
}

var timedeltaPattern = regexp.MustCompile(`^(?:(-?\d+) days? ?)?([+-])?(\d{1,2}):(\d{2}):(\d{2})(\.\d{1,9})?$`)

// ParseTimedelta parses the pandas rendering of a Timedelta, a clock string
// such as "01:30:00", or a Go duration such as "1h30m".
func ParseTimedelta(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if m := timedeltaPattern.FindStringSubmatch(s); m != nil {
		var days int64
		if m[1] != "" {
			days, _ = strconv.ParseInt(m[1], 10, 64)
		}
		h, _ := strconv.ParseInt(m[3], 10, 64)
		mi, _ := strconv.ParseInt(m[4], 10, 64)
		sec, _ := strconv.ParseInt(m[5], 10, 64)
		clock := time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute + time.Duration(sec)*time.Second
		if m[6] != "" {
			frac := (m[6][1:] + "000000000")[:9]
			ns, _ := strconv.ParseInt(frac, 10, 64)
			clock += time.Duration(ns)
		}
		if m[2] == "-" {
			clock = -clock
		}
		return time.Duration(days)*24*time.Hour + clock, true
	}
	d, err := time.ParseDuration(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		return 0, false
	}
	return d, true
}
