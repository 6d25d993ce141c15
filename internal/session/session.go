// Package session knows the US equity regular trading session: the 09:30–16:00
// Eastern window used to trim intraday bars and the "current trade date" used to
// age out cached data.
package session

import (
	"time"
	_ "time/tzdata"

	"polybars/internal/model"
)

const (
	openHour   = 9
	openMinute = 30
	closeHour  = 16
)

var eastern = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("session: load " + name + ": " + err.Error())
	}
	return loc
}

// Eastern returns the exchange time zone.
func Eastern() *time.Location { return eastern }

// Window returns the regular session [open, close) of the Eastern calendar day containing t.
func Window(t time.Time) (open, close time.Time) {
	e := t.In(eastern)
	y, m, d := e.Date()
	return time.Date(y, m, d, openHour, openMinute, 0, 0, eastern),
		time.Date(y, m, d, closeHour, 0, 0, 0, eastern)
}

// InRegular reports whether t is inside its day's regular session.
func InRegular(t time.Time) bool {
	open, close := Window(t)
	return !t.Before(open) && t.Before(close)
}

// Applies reports whether the regular-hours filter is used for span and market.
func Applies(span model.Span, market model.Market) bool {
	return span.Intraday() && market == model.Regular
}

// Filter keeps intraday bars that fall inside the regular session when market is regular.
// Other spans and markets pass through untouched. Filtering twice is a no-op.
func Filter(bars []model.Bar, span model.Span, market model.Market) []model.Bar {
	if !Applies(span, market) {
		return bars
	}
	out := make([]model.Bar, 0, len(bars))
	var open, close time.Time
	for _, b := range bars {
		if b.Time.Before(open) || !b.Time.Before(close) {
			open, close = Window(b.Time)
		}
		if !b.Time.Before(open) && b.Time.Before(close) {
			out = append(out, b)
		}
	}
	return out
}

// IsBusinessDay reports Monday through Friday. Exchange holidays are not modelled.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// PrevBusinessDay returns the closest business day strictly before t's date.
func PrevBusinessDay(t time.Time) time.Time {
	d := model.Date(t).AddDate(0, 0, -1)
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// TradeDate returns the Eastern calendar date of the session considered current at now:
// today once the session has opened, otherwise the previous business day.
// Weekends resolve to the preceding Friday.
func TradeDate(now time.Time) time.Time {
	e := now.In(eastern)
	today := model.Date(e)
	open, _ := Window(e)
	if e.Before(open) || !IsBusinessDay(today) {
		return PrevBusinessDay(today)
	}
	return today
}
