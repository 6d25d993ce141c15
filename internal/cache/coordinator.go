package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"polybars/internal/model"
	"polybars/internal/provider/polygon"
	"polybars/internal/session"
)

// Source produces bars for one query. provider.DataProvider satisfies it.
type Source interface {
	FetchBars(ctx context.Context, q polygon.Query) ([]model.Bar, error)
}

// Locker is the cross-process critical section. *FileLock implements it.
type Locker interface {
	Lock() error
	Unlock() error
}

// Coordinator serves query windows from year segments, fetching and persisting
// the missing ones. Intraday segments hold the regular session only. Safe for
// concurrent use; concurrent requests for one segment share a single load.
type Coordinator struct {
	store    *Store
	registry *Registry
	lock     Locker
	source   Source
	log      *slog.Logger
	now      func() time.Time
	group    singleflight.Group
}

// NewCoordinator wires a Coordinator. Pass nil log to use slog.Default.
func NewCoordinator(store *Store, registry *Registry, lock Locker, source Source, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		store:    store,
		registry: registry,
		lock:     lock,
		source:   source,
		log:      log,
		now:      time.Now,
	}
}

// SetClock replaces time.Now for trade-date and year-to-date decisions.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// Fetch returns q's window assembled from year segments. Years the provider
// has no data for are skipped with a warning; if none has data the result is
// model.ErrNoData.
func (c *Coordinator) Fetch(ctx context.Context, q polygon.Query) ([]model.Bar, error) {
	key := SeriesKey{Ticker: q.Ticker, Span: q.Span, Multiplier: q.Multiplier}
	now := c.now()
	first, last := yearRange(q)
	if cur := now.In(session.Eastern()).Year(); last > cur {
		last = cur
	}
	if first > last {
		return []model.Bar{}, nil
	}

	merged := make([]model.Bar, 0)
	found := 0
	for year := first; year <= last; year++ {
		bars, err := c.segment(ctx, key, q, year, year == last, now)
		if errors.Is(err, model.ErrNoData) {
			c.log.Warn("no data for year; not cached", "ticker", q.Ticker, "span", q.Span, "year", year)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", key, year, err)
		}
		found++
		model.Localize(bars, q.Span, q.Location)
		merged = append(merged, bars...)
	}
	if found == 0 {
		return nil, fmt.Errorf("%w: %s %d-%d", model.ErrNoData, key, first, last)
	}
	// a leading aggregate can sit in two neighbouring segments
	merged = model.SortDedupe(merged)
	c.warnCoverage(q, merged)
	return q.Clip(merged), nil
}

// Clear removes cached segments of ticker ("all" for everything) and returns
// the removed file names.
func (c *Coordinator) Clear(ticker string) (removed []string, err error) {
	if err := c.lock.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if uerr := c.lock.Unlock(); err == nil {
			err = uerr
		}
	}()
	removed, err = c.store.Remove(ticker)
	for _, name := range removed {
		c.registry.Forget(filepath.Join(c.store.Root(), name))
	}
	return removed, err
}

// segment returns one year's bars: lock-free when registered, otherwise
// validated or regenerated under the lock.
func (c *Coordinator) segment(ctx context.Context, key SeriesKey, q polygon.Query, year int, last bool, now time.Time) ([]model.Bar, error) {
	path := c.store.Path(key, year)
	if c.registry.Has(path) {
		bars, err := c.store.Read(path)
		if err == nil {
			return bars, nil
		}
		c.log.Warn("registered cache file unreadable; revalidating", "path", path, "error", err)
		c.registry.Forget(path)
	}

	chk := c.check(q, year, last, now)
	flight := path
	if !chk.Until.IsZero() {
		flight += "@" + chk.Until.Format(time.RFC3339Nano)
	}
	v, err, _ := c.group.Do(flight, func() (any, error) {
		return c.load(ctx, key, year, path, chk, now, q.ShowRequest)
	})
	if err != nil {
		return nil, err
	}
	// shared between callers of one flight; each gets its own copy to localize
	return slices.Clone(v.([]model.Bar)), nil
}

func (c *Coordinator) load(ctx context.Context, key SeriesKey, year int, path string, chk Check, now time.Time, show bool) (bars []model.Bar, err error) {
	if err := c.lock.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if uerr := c.lock.Unlock(); uerr != nil {
			c.log.Error("cache unlock failed", "error", uerr)
			if err == nil {
				err = uerr
			}
		}
	}()

	switch r := c.store.Lookup(path, chk).(type) {
	case Hit:
		c.registry.Add(path)
		c.log.Debug("using cache file", "path", path, "bars", len(r.Bars))
		return r.Bars, nil
	case Miss:
		if r.Reason == NotFound {
			c.log.Info("cache not found, requesting data", "path", path)
		} else {
			c.log.Info("refreshing cache file", "path", path, "reason", r.Reason.String(), "error", r.Err)
		}
	}

	bars, err = c.source.FetchBars(ctx, yearQuery(key, year, now, show))
	if err != nil {
		return nil, err
	}
	if err := c.store.Write(path, bars); err != nil {
		c.log.Warn("cannot write cache file", "path", path, "error", err)
		return bars, nil
	}
	c.registry.Add(path)
	c.log.Info("cached", "path", path, "bars", len(bars))
	return bars, nil
}

// check builds the Lookup rules for year. Past years get the zero Check.
func (c *Coordinator) check(q polygon.Query, year int, last bool, now time.Time) Check {
	if year != now.In(session.Eastern()).Year() {
		return Check{}
	}
	td := session.TradeDate(now)
	chk := Check{Current: true, TradeDate: td}
	if last {
		until := q.To
		if now.Before(until) {
			until = now
		}
		if _, closeAt := session.Window(td.Add(12 * time.Hour)); closeAt.Before(until) {
			until = closeAt
		}
		chk.Until = until
	}
	return chk
}

// yearQuery covers one Eastern calendar year, capped at today for the current year.
// The aggregate that opened before Jan 1 is kept: it holds the year's first sessions.
func yearQuery(key SeriesKey, year int, now time.Time, show bool) polygon.Query {
	et := session.Eastern()
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, et)
	to := model.EndOfDay(time.Date(year, time.December, 31, 12, 0, 0, 0, et), et)
	if today := model.EndOfDay(now, et); today.Before(to) {
		to = today
	}
	return polygon.Query{
		Ticker:      key.Ticker,
		Span:        key.Span,
		Multiplier:  key.Multiplier,
		From:        from,
		To:          to,
		Market:      model.Regular,
		Location:    et,
		ShowRequest: show,
		KeepLeading: true,
	}
}

// yearRange lists the segment years q touches: calendar years of the dates for
// day-and-larger spans, Eastern years of the instants for intraday ones.
func yearRange(q polygon.Query) (int, int) {
	if q.Span.Intraday() {
		et := session.Eastern()
		return q.From.In(et).Year(), q.To.In(et).Year()
	}
	return q.From.Year(), q.To.Year()
}

// warnCoverage flags a merged series that starts well after the requested start
// or ends well before the requested end. The end tolerance is wide because a bar
// is stamped with its open and covers the time up to the next one.
func (c *Coordinator) warnCoverage(q polygon.Query, bars []model.Bar) {
	if len(bars) < 2 {
		return
	}
	first, last := bars[0].Time, bars[len(bars)-1].Time
	observed := last.Sub(first)

	lead := time.Duration(0.05 * float64(observed))
	if model.Date(q.From).Before(model.Date(first.Add(-lead).In(q.Location))) {
		c.log.Warn("requested start outside cache coverage", "ticker", q.Ticker, "span", q.Span,
			"start", q.From.Format(time.DateOnly), "first", first.Format(time.DateOnly))
	}
	tail := time.Duration(0.999 * float64(observed))
	if model.Date(q.To).After(model.Date(last.Add(tail).In(q.Location))) {
		c.log.Warn("requested end outside cache coverage", "ticker", q.Ticker, "span", q.Span,
			"end", q.To.Format(time.DateOnly), "last", last.Format(time.DateOnly))
	}
}
