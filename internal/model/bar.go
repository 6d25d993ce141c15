package model

import (
	"sort"
	"time"
)

// Bar represents one OHLCV bar (minute/daily etc.).
// Intraday bars hold the bar-open instant in the caller's location; daily-and-larger
// bars hold the calendar date at midnight of that location.
type Bar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

// Date returns midnight of t's calendar day in t's own location.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfDay returns 00:00:00 of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last millisecond of t's day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}

// Localize re-expresses bar times for the given span in loc.
// Daily-and-larger bars keep their calendar date; intraday bars keep their instant.
func Localize(bars []Bar, span Span, loc *time.Location) {
	for i := range bars {
		t := bars[i].Time
		if span.Intraday() {
			bars[i].Time = t.In(loc)
		} else {
			bars[i].Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		}
	}
}

// SortDedupe orders bars ascending by time and drops repeated timestamps (first one wins).
func SortDedupe(bars []Bar) []Bar {
	if len(bars) < 2 {
		return bars
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Between returns the bars whose time lies in [from, to]. Input must be sorted.
func Between(bars []Bar, from, to time.Time) []Bar {
	lo := sort.Search(len(bars), func(i int) bool { return !bars[i].Time.Before(from) })
	hi := sort.Search(len(bars), func(i int) bool { return bars[i].Time.After(to) })
	if lo >= hi {
		return []Bar{}
	}
	return bars[lo:hi]
}
