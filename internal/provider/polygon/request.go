package polygon

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"polybars/internal/model"
	"polybars/internal/session"
)

const (
	// DefaultBaseURL is the public Polygon REST endpoint.
	DefaultBaseURL = "https://api.polygon.io"

	// Max 50k results per request
	maxLimit = 50000
)

// Params is caller input for one aggregates query, before validation.
type Params struct {
	Ticker     string
	Span       model.Span
	Multiplier int
	Start      model.TimeArg
	End        model.TimeArg
	Market     model.Market
	Location   *time.Location // output location; nil means US/Eastern
}

// Query is a validated aggregates request covering whole days [From, To] in Location.
type Query struct {
	Ticker      string
	Span        model.Span
	Multiplier  int
	From        time.Time
	To          time.Time
	Market      model.Market
	Location    *time.Location
	ShowRequest bool

	// KeepLeading keeps an aggregate stamped before From. A year segment needs
	// the week or month that opened in December but trades in January.
	KeepLeading bool
}

// window is the provider-side range. Day-and-larger bars are stamped at exchange
// midnight, so their calendar bounds are re-anchored in US/Eastern.
func (q Query) window() (time.Time, time.Time) {
	if q.Span.Intraday() {
		return q.From, q.To
	}
	et := session.Eastern()
	return time.Date(q.From.Year(), q.From.Month(), q.From.Day(), 0, 0, 0, 0, et),
		model.EndOfDay(time.Date(q.To.Year(), q.To.Month(), q.To.Day(), 12, 0, 0, 0, et), et)
}

// FromMillis returns the provider window start as Unix ms.
func (q Query) FromMillis() int64 { from, _ := q.window(); return from.UnixMilli() }

// ToMillis returns the provider window end as Unix ms.
func (q Query) ToMillis() int64 { _, to := q.window(); return to.UnixMilli() }

// Clip trims sorted bars to [From, To]. From is the start of a day in Location,
// so an aggregate dated before the start date goes too, unless KeepLeading.
func (q Query) Clip(bars []model.Bar) []model.Bar {
	from := q.From
	if q.KeepLeading {
		from = time.Time{}
	}
	return model.Between(bars, from, q.To)
}

// BuildQuery validates p and widens its bounds to whole days in the output location.
// An unknown span or market is a configuration error; a multiplier below 1 becomes 1.
func BuildQuery(p Params, now time.Time, log *slog.Logger) (Query, error) {
	ticker := strings.ToUpper(strings.TrimSpace(p.Ticker))
	if ticker == "" {
		return Query{}, fmt.Errorf("%w: empty ticker", model.ErrConfig)
	}
	span, err := model.ParseSpan(string(p.Span))
	if err != nil {
		return Query{}, err
	}
	market := p.Market
	if market == "" {
		market = model.Regular
	}
	if market, err = model.ParseMarket(string(market)); err != nil {
		return Query{}, err
	}
	mult := p.Multiplier
	if mult < 1 {
		log.Warn("span multiplier must be a positive integer, using 1", "ticker", ticker, "multiplier", p.Multiplier)
		mult = 1
	}
	loc := p.Location
	if loc == nil {
		loc = session.Eastern()
	}

	start, err := p.Start.Resolve(now, loc)
	if err != nil {
		return Query{}, fmt.Errorf("start: %w", err)
	}
	end, err := p.End.Resolve(now, loc)
	if err != nil {
		return Query{}, fmt.Errorf("end: %w", err)
	}
	q := Query{
		Ticker:     ticker,
		Span:       span,
		Multiplier: mult,
		From:       model.StartOfDay(start, loc),
		To:         model.EndOfDay(end, loc),
		Market:     market,
		Location:   loc,
	}
	if q.To.Before(q.From) {
		return Query{}, fmt.Errorf("%w: end %s before start %s", model.ErrConfig,
			q.To.Format(time.DateOnly), q.From.Format(time.DateOnly))
	}
	return q, nil
}

// AggregatesURL builds the GET URL for q (adjusted, sort, limit, apiKey).
func AggregatesURL(baseURL string, q Query, apiKey string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	v := url.Values{}
	v.Set("adjusted", "true")
	v.Set("sort", "asc")
	v.Set("limit", strconv.Itoa(maxLimit))
	v.Set("apiKey", apiKey)
	return fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%d/%d?%s",
		strings.TrimRight(baseURL, "/"), url.PathEscape(q.Ticker), q.Multiplier, q.Span,
		q.FromMillis(), q.ToMillis(), v.Encode())
}

// withAPIKey re-appends the key to a next_url cursor, which Polygon returns without it.
func withAPIKey(raw, apiKey string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse next_url: %w", err)
	}
	v := u.Query()
	v.Set("apiKey", apiKey)
	u.RawQuery = v.Encode()
	return u.String(), nil
}

// MaskKey replaces the apiKey query value with ***.
func MaskKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	v := u.Query()
	if !v.Has("apiKey") {
		return raw
	}
	v.Set("apiKey", "***")
	u.RawQuery = v.Encode()
	s, _ := url.QueryUnescape(u.String())
	return s
}
