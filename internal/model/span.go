package model

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration and result errors shared across packages.
var (
	ErrConfig        = errors.New("configuration error")
	ErrInvalidSpan   = fmt.Errorf("%w: span must be one of %s", ErrConfig, strings.Join(spanNames(), ", "))
	ErrInvalidMarket = fmt.Errorf("%w: market must be one of regular, all", ErrConfig)
	ErrInvalidTime   = fmt.Errorf("%w: unrecognized date/time", ErrConfig)

	// ErrNoData means the provider answered with an error or an unexpected status.
	// It is distinct from an empty result, which is returned as a zero-length slice.
	ErrNoData = errors.New("no data")
)

// Span is the granularity of a bar.
type Span string

const (
	Second  Span = "second"
	Minute  Span = "minute"
	Hour    Span = "hour"
	Day     Span = "day"
	Week    Span = "week"
	Month   Span = "month"
	Quarter Span = "quarter"
	Year    Span = "year"
)

var spans = []Span{Second, Minute, Hour, Day, Week, Month, Quarter, Year}

func spanNames() []string {
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = string(s)
	}
	return names
}

// ParseSpan validates s against the known spans.
func ParseSpan(s string) (Span, error) {
	v := Span(strings.ToLower(strings.TrimSpace(s)))
	for _, sp := range spans {
		if sp == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w (got %q)", ErrInvalidSpan, s)
}

// Intraday reports whether bars of this span are indexed by instant rather than date.
func (s Span) Intraday() bool {
	return s == Second || s == Minute || s == Hour
}

// Market selects the trading session returned for intraday spans.
type Market string

const (
	Regular  Market = "regular"
	AllHours Market = "all"
)

// ParseMarket validates s as a market mode.
func ParseMarket(s string) (Market, error) {
	switch m := Market(strings.ToLower(strings.TrimSpace(s))); m {
	case Regular, AllHours:
		return m, nil
	default:
		return "", fmt.Errorf("%w (got %q)", ErrInvalidMarket, s)
	}
}

