package polygon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// DefaultRateLimitWait: Polygon free tier allows 5 req/min, so 12s between requests.
const DefaultRateLimitWait = 12 * time.Second

// ClientConfig tunes the HTTP client.
type ClientConfig struct {
	Timeout           time.Duration // per request; 0 means 5 minutes
	RequestsPerMinute int           // client-side pacing; 0 disables
	Wait              bool          // on rate limit, sleep and resubmit instead of returning the page
	RateLimitWait     time.Duration // 0 means DefaultRateLimitWait
	Retries           int           // retries on network errors
}

// Client issues aggregates GETs and absorbs Polygon rate limiting.
type Client struct {
	r       *resty.Client
	limiter *rate.Limiter
	wait    bool
	pause   time.Duration
	log     *slog.Logger
}

// baseTransportConfig returns the shared HTTP transport configuration used by Polygon clients.
func baseTransportConfig() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 2 * time.Minute,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
	}
}

// NewClient creates a Client. Pass nil log to use slog.Default.
func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	pause := cfg.RateLimitWait
	if pause <= 0 {
		pause = DefaultRateLimitWait
	}
	r := resty.New().
		SetTransport(baseTransportConfig()).
		SetTimeout(timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		SetHeader("Accept", "application/json")

	c := &Client{r: r, wait: cfg.Wait, pause: pause, log: log}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c
}

// Get fetches url and returns the raw body whatever the HTTP status; the assembler
// decides what an error page means. A rate-limited answer is retried every
// RateLimitWait until it clears or ctx ends, when waiting is enabled.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		resp, err := c.r.R().SetContext(ctx).Get(url)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("GET %s: %w", MaskKey(url), err)
		}
		body := resp.Body()
		if !c.wait || !rateLimited(resp.StatusCode(), body) {
			return body, nil
		}
		c.log.Warn("max requests per minute exceeded; waiting to try again",
			"attempt", attempt, "wait", c.pause)
		if err := sleep(ctx, c.pause); err != nil {
			return nil, err
		}
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.r.GetClient().CloseIdleConnections()
	return nil
}

// rateLimited reports an HTTP 429 or a results-less page whose error mentions the quota.
func rateLimited(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if gjson.GetBytes(body, "results").Exists() {
		return false
	}
	msg := gjson.GetBytes(body, "error").String()
	return strings.Contains(strings.ToLower(msg), "exceeded")
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
