package crawl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"polybars/internal/model"
	"polybars/internal/ohlcv"
	"polybars/internal/slogx"
)

// Fetcher is what a worker calls per ticker. *ohlcv.Service implements it.
type Fetcher interface {
	Fetch(ctx context.Context, q ohlcv.Query) ([]model.Bar, error)
}

// Sink receives each successful series. Returning an error fails the ticker.
type Sink func(ticker string, bars []model.Bar) error

// Options tunes a batch run.
type Options struct {
	Workers   int           // default 1
	ReportDir string        // .lastrun.*.json are written here when set
	Heartbeat time.Duration // default 30s
	Sink      Sink
	LogOutput io.Writer // fan-in log destination; default stderr
}

// JobResult is sent by workers for fan-in
type JobResult struct {
	Ok     bool
	Ticker string
	Reason string
	Bars   int
}

// Summary is the outcome of a batch run.
type Summary struct {
	Success     int
	Failed      int
	SuccessList []string
	FailedList  []FailedEntry
	Bars        map[string]int
}

// Run fetches tmpl for every ticker with opts.Workers workers sharing svc.
// A failing ticker, "no data" included, is recorded and never stops the batch.
// Cancelling ctx stops handing out tickers; in-flight fetches see the cancellation.
func Run(ctx context.Context, svc Fetcher, tmpl ohlcv.Query, tickers []string, opts Options) Summary {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(tickers) {
		workers = len(tickers)
	}
	heartbeat := opts.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}

	logs := make(chan string, 2048)
	logger := slogx.NewChanLogger(logs)
	var logWg sync.WaitGroup
	logWg.Add(1)
	go func() {
		defer logWg.Done()
		runLogWriter(out, logs)
	}()
	defer func() {
		close(logs)
		logWg.Wait()
	}()

	pending := make(chan string, len(tickers))
	for _, t := range tickers {
		pending <- t
	}
	close(pending)

	results := make(chan JobResult, len(tickers))
	var mu sync.Mutex
	sum := Summary{Bars: make(map[string]int)}
	var resWg sync.WaitGroup
	resWg.Add(1)
	go func() {
		defer resWg.Done()
		runJobResultCollector(results, &mu, &sum)
	}()

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	var hbWg sync.WaitGroup
	hbWg.Add(1)
	go func() {
		defer hbWg.Done()
		runHeartbeat(hbCtx, heartbeat, len(tickers), &mu, &sum, logger)
	}()

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ticker, ok := <-pending:
					if !ok {
						return
					}
					results <- fetchOne(ctx, svc, tmpl, ticker, opts.Sink, logger)
				}
			}
		}()
	}
	wg.Wait()
	close(results)
	resWg.Wait()
	// the heartbeat logs into logs, which is closed on return
	stopHeartbeat()
	hbWg.Wait()

	logSummary(logger, sum)
	if opts.ReportDir != "" && (len(sum.SuccessList) > 0 || len(sum.FailedList) > 0) {
		if err := writeRunReport(opts.ReportDir, sum.SuccessList, sum.FailedList); err != nil {
			logger.Warn("could not write run report", "error", err)
		} else {
			logger.Info("run report saved", "success", len(sum.SuccessList), "failed", len(sum.FailedList))
		}
	}
	return sum
}

func fetchOne(ctx context.Context, svc Fetcher, tmpl ohlcv.Query, ticker string, sink Sink, logger *slog.Logger) JobResult {
	q := tmpl
	q.Ticker = ticker
	bars, err := svc.Fetch(ctx, q)
	switch {
	case errors.Is(err, model.ErrNoData):
		logger.Warn("fetch fail", "ticker", ticker, "reason", "no data")
		return JobResult{Ticker: ticker, Reason: "no data"}
	case err != nil:
		logger.Error("fetch fail", "ticker", ticker, "reason", err.Error())
		return JobResult{Ticker: ticker, Reason: err.Error()}
	}
	if sink != nil {
		if err := sink(ticker, bars); err != nil {
			logger.Error("save fail", "ticker", ticker, "reason", err.Error())
			return JobResult{Ticker: ticker, Reason: err.Error()}
		}
	}
	logger.Info("fetch ok", "ticker", ticker, "bars", len(bars))
	return JobResult{Ok: true, Ticker: ticker, Bars: len(bars)}
}

func runJobResultCollector(results <-chan JobResult, mu *sync.Mutex, sum *Summary) {
	for r := range results {
		mu.Lock()
		if r.Ok {
			sum.Success++
			sum.SuccessList = appendSuccess(sum.SuccessList, r.Ticker)
			sum.Bars[r.Ticker] += r.Bars
		} else {
			sum.Failed++
			sum.FailedList = append(sum.FailedList, FailedEntry{Ticker: r.Ticker, Reason: r.Reason})
		}
		mu.Unlock()
	}
}

func logSummary(logger *slog.Logger, sum Summary) {
	var total int
	for _, n := range sum.Bars {
		total += n
	}
	logger.Info("summary", "total_bars", total, "success", sum.Success, "failed", sum.Failed)
	tickers := make([]string, 0, len(sum.Bars))
	for t := range sum.Bars {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	for _, t := range tickers {
		logger.Info("summary ticker", "ticker", t, "bars", sum.Bars[t])
	}
	if len(sum.FailedList) > 0 {
		logger.Info("summary failed", "count", len(sum.FailedList), "reasons", joinFailedReasons(sum.FailedList))
	}
}
