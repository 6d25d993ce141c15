package app

import (
	"fmt"
	"log/slog"

	"polybars/internal/cache"
	"polybars/internal/ohlcv"
	"polybars/internal/provider"
	"polybars/internal/saver"
	"polybars/internal/slogx"
)

// ProvideConfig loads config from environment (for Wire).
func ProvideConfig() (*Config, error) {
	return LoadConfig()
}

// ProvideLogger builds the process logger and makes it the slog default (for Wire).
// The cleanup flushes the log file.
func ProvideLogger(cfg *Config) (*slog.Logger, func()) {
	log, closer := slogx.New(cfg.LogLevel, slogx.FileOptions{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: 5,
	})
	slog.SetDefault(log)
	return log, func() { _ = closer.Close() }
}

// ProvideCodec creates the segment codec from config (for Wire).
// Returns error if SegmentFormat is not supported.
func ProvideCodec(cfg *Config) (saver.Codec, error) {
	c := saver.New(cfg.SegmentFormat)
	if c == nil {
		return nil, fmt.Errorf("unsupported POLYBARS_SEGMENT_FORMAT %q (use: csv.gz, parquet, json)", cfg.SegmentFormat)
	}
	return c, nil
}

// ProvideDataProvider creates the configured DataProvider (for Wire).
// The cleanup closes its connections.
func ProvideDataProvider(cfg *Config, log *slog.Logger) (provider.DataProvider, func(), error) {
	dp, err := CreateProvider(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return dp, func() { _ = dp.Close() }, nil
}

// ProvideFileLock prepares the cache root and its lock file (for Wire).
func ProvideFileLock(cfg *Config) (*cache.FileLock, error) {
	return cache.NewFileLock(cfg.CacheDir)
}

// ProvideCoordinator wires the year cache over dp (for Wire).
func ProvideCoordinator(cfg *Config, codec saver.Codec, lock *cache.FileLock, dp provider.DataProvider, log *slog.Logger) *cache.Coordinator {
	return cache.NewCoordinator(cache.NewStore(cfg.CacheDir, codec), cache.NewRegistry(), lock, dp, log)
}

// ProvideService builds the fetch entry point (for Wire).
func ProvideService(cfg *Config, dp provider.DataProvider, coord *cache.Coordinator, log *slog.Logger) (*ohlcv.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return ohlcv.NewService(dp, coord, ohlcv.Options{Cache: cfg.Cache, Location: loc}, log), nil
}
