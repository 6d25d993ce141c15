package polygon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"polybars/internal/model"
	"polybars/internal/session"
)

// Getter returns the body of a GET. *Client implements it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Fetcher runs one query end to end: URL, paged GETs, assembly, regular-hours trim.
type Fetcher struct {
	client  Getter
	baseURL string
	apiKey  string
	log     *slog.Logger
}

// NewFetcher wires a Fetcher. An empty baseURL means DefaultBaseURL.
func NewFetcher(client Getter, baseURL, apiKey string, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{client: client, baseURL: baseURL, apiKey: apiKey, log: log}
}

// Fetch returns the bars for q. An empty slice means nothing traded in the window;
// model.ErrNoData means the provider answered with an error on any page, in which
// case no partial series is returned.
func (f *Fetcher) Fetch(ctx context.Context, q Query) ([]model.Bar, error) {
	url := AggregatesURL(f.baseURL, q, f.apiKey)
	if q.ShowRequest {
		f.log.Info("request", "url", MaskKey(url))
	}
	asm := NewAssembler(q.Span, q.Location, estimatedBars(q))
	for page := 1; url != ""; page++ {
		body, err := f.client.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", q.Ticker, page, err)
		}
		next, err := asm.Add(body)
		if err != nil {
			f.log.Warn("provider returned no data", "ticker", q.Ticker, "span", q.Span,
				"page", page, "url", MaskKey(url), "error", err)
			return nil, err
		}
		if next == "" {
			break
		}
		if url, err = withAPIKey(next, f.apiKey); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrNoData, err)
		}
		f.log.Debug("following next_url", "ticker", q.Ticker, "page", page+1)
	}
	return q.Clip(session.Filter(asm.Bars(), q.Span, q.Market)), nil
}

// Bars per session day used for pre-alloc, extended hours included.
var barsPerDay = map[model.Span]int{
	model.Second: 57600,
	model.Minute: 960,
	model.Hour:   16,
	model.Day:    1,
}

// estimatedBars returns a pre-alloc capacity for q, capped so a wide second-span
// request does not reserve gigabytes up front.
func estimatedBars(q Query) int {
	days := int(q.To.Sub(q.From)/(24*time.Hour)) + 1
	if days < 1 {
		days = 1
	}
	per, ok := barsPerDay[q.Span]
	if !ok {
		return days/5 + 1
	}
	n := days * per
	if q.Multiplier > 1 {
		n /= q.Multiplier
	}
	n += n / 10
	if n > 500000 {
		n = 500000
	}
	return n
}
