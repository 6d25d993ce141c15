package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type argKind int

const (
	argDays argKind = iota
	argText
	argTime
)

// TimeArg is a start/end input: a day offset from today, a date/time string,
// or a concrete time. The zero value means "today".
type TimeArg struct {
	kind argKind
	days int
	text string
	t    time.Time
}

// DaysFromToday is 0 for today, negative for the past.
func DaysFromToday(n int) TimeArg { return TimeArg{kind: argDays, days: n} }

// Text parses s when resolved, e.g. "2024-03-01" or "2024-03-01 10:30".
func Text(s string) TimeArg { return TimeArg{kind: argText, text: strings.TrimSpace(s)} }

// At wraps a concrete time.
func At(t time.Time) TimeArg { return TimeArg{kind: argTime, t: t} }

// ParseTimeArg reads CLI input: an integer is a day offset, anything else a date string.
func ParseTimeArg(s string) TimeArg {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return DaysFromToday(n)
	}
	return Text(s)
}

func (a TimeArg) String() string {
	switch a.kind {
	case argText:
		return a.text
	case argTime:
		return a.t.Format(time.RFC3339)
	default:
		return strconv.Itoa(a.days)
	}
}

var textLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"20060102",
}

// Resolve turns the argument into an instant. Strings without a zone are read in loc.
func (a TimeArg) Resolve(now time.Time, loc *time.Location) (time.Time, error) {
	switch a.kind {
	case argTime:
		return a.t.In(loc), nil
	case argText:
		if t, err := time.Parse(time.RFC3339Nano, a.text); err == nil {
			return t.In(loc), nil
		}
		for _, layout := range textLayouts {
			if t, err := time.ParseInLocation(layout, a.text, loc); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, a.text)
	default:
		return now.In(loc).AddDate(0, 0, a.days), nil
	}
}
