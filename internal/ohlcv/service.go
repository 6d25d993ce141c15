// Package ohlcv is the entry point for historical bars: it validates a query,
// decides whether the year cache serves it, and returns one ordered series.
package ohlcv

import (
	"context"
	"log/slog"
	"time"

	"polybars/internal/cache"
	"polybars/internal/model"
	"polybars/internal/provider"
	"polybars/internal/provider/polygon"
	"polybars/internal/session"
)

// CacheMode is a per-call cache override.
type CacheMode int

const (
	CacheDefault CacheMode = iota // use the service default
	CacheOn
	CacheOff
)

// CacheModeOf maps an optional flag to a CacheMode.
func CacheModeOf(set, on bool) CacheMode {
	switch {
	case !set:
		return CacheDefault
	case on:
		return CacheOn
	default:
		return CacheOff
	}
}

// Query is one fetch request. Zero Start/End mean today; zero Market means regular;
// nil Location means the service location.
type Query struct {
	Ticker      string
	Span        model.Span
	Multiplier  int
	Start       model.TimeArg
	End         model.TimeArg
	Market      model.Market
	Cache       CacheMode
	Location    *time.Location
	ShowRequest bool
}

// Options are service-wide defaults.
type Options struct {
	Cache    bool
	Location *time.Location
}

// Service fetches bars directly or through the year cache.
type Service struct {
	source provider.DataProvider
	coord  *cache.Coordinator
	opts   Options
	log    *slog.Logger
	now    func() time.Time
}

// NewService wires a Service. Pass nil log to use slog.Default.
func NewService(source provider.DataProvider, coord *cache.Coordinator, opts Options, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = session.Eastern()
	}
	return &Service{source: source, coord: coord, opts: opts, log: log, now: time.Now}
}

// SetClock replaces time.Now here and in the cache coordinator.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.coord.SetClock(now)
}

// Fetch returns the bars for q, ascending with unique times.
// Configuration problems are model.ErrConfig; a provider error is model.ErrNoData;
// a window with no trading is an empty slice.
func (s *Service) Fetch(ctx context.Context, q Query) ([]model.Bar, error) {
	loc := q.Location
	if loc == nil {
		loc = s.opts.Location
	}
	pq, err := polygon.BuildQuery(polygon.Params{
		Ticker:     q.Ticker,
		Span:       q.Span,
		Multiplier: q.Multiplier,
		Start:      q.Start,
		End:        q.End,
		Market:     q.Market,
		Location:   loc,
	}, s.now(), s.log)
	if err != nil {
		return nil, err
	}
	pq.ShowRequest = q.ShowRequest

	if s.useCache(q.Cache, pq) {
		return s.coord.Fetch(ctx, pq)
	}
	return s.source.FetchBars(ctx, pq)
}

// Clear removes cached segments of ticker, or every segment for "all".
func (s *Service) Clear(ticker string) ([]string, error) {
	removed, err := s.coord.Clear(ticker)
	if err != nil {
		return removed, err
	}
	s.log.Info("cache cleared", "ticker", ticker, "files", len(removed))
	return removed, nil
}

func (s *Service) useCache(mode CacheMode, q polygon.Query) bool {
	on := s.opts.Cache
	switch mode {
	case CacheOn:
		on = true
	case CacheOff:
		on = false
	}
	if !on {
		return false
	}
	if q.Span == model.Second {
		s.log.Warn("second-span data is never cached; fetching directly", "ticker", q.Ticker)
		return false
	}
	if q.Span.Intraday() && q.Market == model.AllHours {
		s.log.Warn("cache holds the regular session only; fetching all hours directly",
			"ticker", q.Ticker, "span", q.Span)
		return false
	}
	return true
}
