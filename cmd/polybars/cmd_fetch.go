package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"polybars/internal/crawl"
	"polybars/internal/model"
	"polybars/internal/ohlcv"
	"polybars/internal/saver"
)

type fetchFlags struct {
	start       string
	end         string
	span        string
	multiplier  string
	market      string
	cache       bool
	noCache     bool
	tz          string
	format      string
	out         string
	tickersFile string
	workers     int
	showRequest bool
}

func newFetchCmd() *cobra.Command {
	f := &fetchFlags{}
	cmd := &cobra.Command{
		Use:   "fetch TICKER...",
		Short: "Fetch bars for one or more tickers",
		Long: `Fetch bars for one or more tickers.

--start and --end take a date ("2024-03-01"), a date and time, or an integer
day offset from today (0 = today, -30 = thirty days ago).

A single ticker prints CSV to stdout unless --out names a file.
Several tickers (or --tickers-file) are written to <out>/<TICKER>.<format>
together with a run report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, f, args)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.start, "start", "-30", "first day: date or day offset from today")
	fl.StringVar(&f.end, "end", "0", "last day: date or day offset from today")
	fl.StringVar(&f.span, "span", "day", "bar span: second, minute, hour, day, week, month, quarter, year")
	fl.StringVar(&f.multiplier, "multiplier", "1", "spans per bar")
	fl.StringVar(&f.market, "market", "regular", "regular (09:30-16:00 ET) or all")
	fl.BoolVar(&f.cache, "cache", false, "read and write the year cache")
	fl.BoolVar(&f.noCache, "no-cache", false, "bypass the year cache")
	fl.StringVar(&f.tz, "tz", "", "output time zone (default POLYBARS_TZ)")
	fl.StringVar(&f.format, "format", "csv", "file format for --out: csv, csv.gz, json, parquet")
	fl.StringVar(&f.out, "out", "", "output file (one ticker) or directory (several)")
	fl.StringVar(&f.tickersFile, "tickers-file", "", "tickers from .txt (one per line) or .json array")
	fl.IntVar(&f.workers, "workers", 1, "parallel tickers in batch mode")
	fl.BoolVar(&f.showRequest, "show-request", false, "log each request URL (API key masked)")
	cmd.MarkFlagsMutuallyExclusive("cache", "no-cache")
	return cmd
}

func runFetch(cmd *cobra.Command, f *fetchFlags, args []string) error {
	tickers := args
	if f.tickersFile != "" {
		fromFile, err := crawl.LoadTickersFromFile(f.tickersFile)
		if err != nil {
			return err
		}
		tickers = append(tickers, fromFile...)
	}
	tickers = crawl.Unique(tickers)
	if len(tickers) == 0 {
		return fmt.Errorf("%w: no tickers given", model.ErrConfig)
	}

	a, cleanup, err := InitializeApp()
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()
	a.Log.Info("using data provider", "provider", a.DP.GetName())

	tmpl, err := f.query(a.Log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if len(tickers) == 1 && f.tickersFile == "" {
		tmpl.Ticker = tickers[0]
		bars, err := a.Service.Fetch(ctx, tmpl)
		if err != nil {
			return err
		}
		if f.out == "" {
			return saver.WriteCSV(cmd.OutOrStdout(), bars)
		}
		if err := saver.ForPath(f.out).Save(bars, f.out); err != nil {
			return err
		}
		a.Log.Info("saved", "ticker", tmpl.Ticker, "bars", len(bars), "path", f.out)
		return nil
	}

	codec := saver.New(f.format)
	if codec == nil {
		return fmt.Errorf("%w: unsupported --format %q", model.ErrConfig, f.format)
	}
	dir := f.out
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	a.Log.Info("batch fetch", "tickers", len(tickers), "workers", f.workers, "dir", dir, "format", codec.Extension())

	sum := crawl.Run(ctx, a.Service, tmpl, tickers, crawl.Options{
		Workers:   f.workers,
		ReportDir: dir,
		Sink: func(ticker string, bars []model.Bar) error {
			return codec.Save(bars, filepath.Join(dir, ticker+"."+codec.Extension()))
		},
	})
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d tickers failed", sum.Failed, len(tickers))
	}
	return ctx.Err()
}

// query turns the flags into a request template without a ticker.
func (f *fetchFlags) query(log *slog.Logger) (ohlcv.Query, error) {
	if log == nil {
		log = slog.Default()
	}
	span, err := model.ParseSpan(f.span)
	if err != nil {
		return ohlcv.Query{}, err
	}
	market, err := model.ParseMarket(f.market)
	if err != nil {
		return ohlcv.Query{}, err
	}
	mult, err := strconv.Atoi(strings.TrimSpace(f.multiplier))
	if err != nil {
		log.Warn("multiplier is not an integer; using 1", "multiplier", f.multiplier)
		mult = 1
	}
	var loc *time.Location
	if f.tz != "" {
		if loc, err = time.LoadLocation(f.tz); err != nil {
			return ohlcv.Query{}, fmt.Errorf("%w: --tz %q: %v", model.ErrConfig, f.tz, err)
		}
	}
	return ohlcv.Query{
		Span:        span,
		Multiplier:  mult,
		Start:       model.ParseTimeArg(f.start),
		End:         model.ParseTimeArg(f.end),
		Market:      market,
		Cache:       ohlcv.CacheModeOf(f.cache || f.noCache, f.cache),
		Location:    loc,
		ShowRequest: f.showRequest,
	}, nil
}
