package polygon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polybars/internal/model"
	"polybars/internal/provider/polygon/polygontest"
	"polybars/internal/session"
)

const testKey = "test-key-0123456789"

func newTestFetcher(srv *polygontest.Server, wait bool) *Fetcher {
	c := NewClient(ClientConfig{Wait: wait, RateLimitWait: 5 * time.Millisecond}, discard)
	return NewFetcher(c, srv.URL, testKey, discard)
}

func janQuery(t *testing.T, span model.Span, market model.Market) Query {
	t.Helper()
	q, err := BuildQuery(Params{
		Ticker: "SPY", Span: span, Market: market,
		Start: model.Text("2023-01-01"), End: model.Text("2023-02-01"),
	}, time.Now(), discard)
	require.NoError(t, err)
	return q
}

func TestFetchDailyJanuary2023(t *testing.T) {
	srv := polygontest.New()
	defer srv.Close()

	bars, err := newTestFetcher(srv, true).Fetch(context.Background(), janQuery(t, model.Day, model.Regular))
	require.NoError(t, err)
	require.Len(t, bars, 21)
	assert.Equal(t, "2023-01-03", bars[0].Time.Format(time.DateOnly))
	assert.Equal(t, "2023-02-01", bars[len(bars)-1].Time.Format(time.DateOnly))
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i-1].Time.Before(bars[i].Time))
	}
}

func TestFetchFollowsNextURL(t *testing.T) {
	srv := polygontest.New()
	defer srv.Close()
	srv.PageSize = 7

	bars, err := newTestFetcher(srv, true).Fetch(context.Background(), janQuery(t, model.Day, model.Regular))
	require.NoError(t, err)
	assert.Len(t, bars, 21)
	assert.Equal(t, 3, srv.Calls("SPY"))
	for _, u := range srv.URLs()[1:] {
		assert.Contains(t, u, "cursor=")
		assert.Contains(t, u, "apiKey="+testKey)
	}
}

func TestFetchErrorPageDiscardsPartialSeries(t *testing.T) {
	srv := polygontest.New()
	defer srv.Close()
	srv.PageSize = 5
	srv.FailPage(3)

	bars, err := newTestFetcher(srv, true).Fetch(context.Background(), janQuery(t, model.Day, model.Regular))
	assert.ErrorIs(t, err, model.ErrNoData)
	assert.Nil(t, bars)
}

func TestFetchWaitsOutRateLimit(t *testing.T) {
	srv := polygontest.New()
	defer srv.Close()
	srv.RateLimitNext(2)

	bars, err := newTestFetcher(srv, true).Fetch(context.Background(), janQuery(t, model.Day, model.Regular))
	require.NoError(t, err)
	assert.Len(t, bars, 21)
	assert.Equal(t, 3, srv.Calls("SPY"))
}

func TestFetchRateLimitWithoutWaitIsNoData(t *testing.T) {
	srv := polygontest.New()
	defer srv.Close()
	srv.RateLimitNext(1)

	_, err := newTestFetcher(srv, false).Fetch(context.Background(), janQuery(t, model.Day, model.Regular))
	assert.ErrorIs(t, err, model.ErrNoData)
	assert.Equal(t, 1, srv.Calls("SPY"))
}

func TestFetchRateLimitHonoursContext(t *testing.T) {
	srv := polygontest.New()
	defer srv.Close()
	srv.RateLimitNext(1000)

	c := NewClient(ClientConfig{Wait: true, RateLimitWait: time.Hour}, discard)
	f := NewFetcher(c, srv.URL, testKey, discard)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, janQuery(t, model.Day, model.Regular))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchEmptyTicker(t *testing.T) {
	srv := polygontest.New()
	defer srv.Close()
	srv.EmptyTicker("SPY")

	bars, err := newTestFetcher(srv, true).Fetch(context.Background(), janQuery(t, model.Day, model.Regular))
	require.NoError(t, err)
	assert.NotNil(t, bars)
	assert.Empty(t, bars)
}

func TestFetchMinuteRegularSession(t *testing.T) {
	srv := polygontest.New()
	defer srv.Close()
	f := newTestFetcher(srv, true)

	q := janQuery(t, model.Minute, model.Regular)
	q.From = time.Date(2023, 1, 3, 0, 0, 0, 0, session.Eastern())
	q.To = model.EndOfDay(time.Date(2023, 1, 4, 0, 0, 0, 0, session.Eastern()), session.Eastern())
	bars, err := f.Fetch(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, bars, 2*390)
	for _, b := range bars {
		require.True(t, session.InRegular(b.Time), b.Time)
	}
	assert.Equal(t, bars, session.Filter(bars, model.Minute, model.Regular))

	q.Market = model.AllHours
	all, err := f.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, all, 2*960)
}

func TestRateLimitedDetection(t *testing.T) {
	assert.True(t, rateLimited(429, nil))
	assert.True(t, rateLimited(200, []byte(`{"status":"ERROR","error":"You've exceeded the maximum requests per minute"}`)))
	assert.False(t, rateLimited(200, []byte(`{"status":"ERROR","error":"Unknown API Key"}`)))
	assert.False(t, rateLimited(200, []byte(`{"status":"OK","results":[],"error":"exceeded"}`)))
}
