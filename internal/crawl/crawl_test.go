package crawl

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polybars/internal/model"
	"polybars/internal/ohlcv"
)

type fakeFetcher struct {
	mu   sync.Mutex
	seen []ohlcv.Query
}

func (f *fakeFetcher) Fetch(_ context.Context, q ohlcv.Query) ([]model.Bar, error) {
	f.mu.Lock()
	f.seen = append(f.seen, q)
	f.mu.Unlock()
	switch q.Ticker {
	case "NODATA":
		return nil, model.ErrNoData
	case "BROKEN":
		return nil, errors.New("connection reset")
	case "EMPTY":
		return []model.Bar{}, nil
	}
	return []model.Bar{{Time: time.Unix(0, 0)}, {Time: time.Unix(60, 0)}}, nil
}

func TestRunKeepsGoingPastFailures(t *testing.T) {
	f := &fakeFetcher{}
	dir := t.TempDir()
	tmpl := ohlcv.Query{Span: model.Day, Start: model.Text("2023-01-01"), End: model.Text("2023-02-01")}
	tickers := []string{"SPY", "NODATA", "QQQ", "BROKEN", "EMPTY"}

	var mu sync.Mutex
	saved := map[string]int{}
	sum := Run(context.Background(), f, tmpl, tickers, Options{
		Workers:   3,
		ReportDir: dir,
		LogOutput: io.Discard,
		Sink: func(ticker string, bars []model.Bar) error {
			mu.Lock()
			defer mu.Unlock()
			saved[ticker] = len(bars)
			return nil
		},
	})

	assert.Equal(t, 3, sum.Success)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, map[string]int{"SPY": 2, "QQQ": 2, "EMPTY": 0}, saved)
	require.Len(t, f.seen, 5)
	for _, q := range f.seen {
		assert.Equal(t, model.Day, q.Span)
		assert.Equal(t, "2023-01-01", q.Start.String())
	}

	var ok []string
	data, err := os.ReadFile(filepath.Join(dir, ".lastrun.success.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &ok))
	sort.Strings(ok)
	assert.Equal(t, []string{"EMPTY", "QQQ", "SPY"}, ok)

	var failed []FailedEntry
	data, err = os.ReadFile(filepath.Join(dir, ".lastrun.failed.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &failed))
	reasons := map[string]string{}
	for _, e := range failed {
		reasons[e.Ticker] = e.Reason
	}
	assert.Equal(t, map[string]string{"NODATA": "no data", "BROKEN": "connection reset"}, reasons)
}

func TestRunSinkErrorFailsTicker(t *testing.T) {
	sum := Run(context.Background(), &fakeFetcher{}, ohlcv.Query{}, []string{"SPY"}, Options{
		LogOutput: io.Discard,
		Sink:      func(string, []model.Bar) error { return errors.New("disk full") },
	})
	assert.Equal(t, 0, sum.Success)
	require.Len(t, sum.FailedList, 1)
	assert.Equal(t, "disk full", sum.FailedList[0].Reason)
}

func TestRunCancelledHandsOutNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeFetcher{}
	sum := Run(ctx, f, ohlcv.Query{}, []string{"A", "B", "C"}, Options{Workers: 2, LogOutput: io.Discard})
	assert.LessOrEqual(t, sum.Success+sum.Failed, 3)
	assert.Len(t, f.seen, sum.Success+sum.Failed)
}

func TestRunWithBusyHeartbeat(t *testing.T) {
	for i := 0; i < 200; i++ {
		f := &fakeFetcher{}
		sum := Run(context.Background(), f, ohlcv.Query{}, []string{"SPY", "QQQ"}, Options{
			Workers:   2,
			Heartbeat: time.Nanosecond,
			LogOutput: io.Discard,
		})
		require.Equal(t, 2, sum.Success)
	}
}

func TestLoadTickersFromFile(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "tickers.txt")
	require.NoError(t, os.WriteFile(txt, []byte("# index\nspy\n\nQQQ\n  spy  \nBRK.B\n"), 0o644))
	got, err := LoadTickersFromFile(txt)
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY", "QQQ", "BRK.B"}, got)

	js := filepath.Join(dir, "tickers.json")
	require.NoError(t, os.WriteFile(js, []byte(`["aapl","MSFT","aapl"]`), 0o644))
	got, err = LoadTickersFromFile(js)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got)

	_, err = LoadTickersFromFile(filepath.Join(dir, "tickers.csv"))
	assert.Error(t, err)
}
