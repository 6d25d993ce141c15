package main

import (
	"log/slog"

	"polybars/internal/app"
	"polybars/internal/ohlcv"
	"polybars/internal/provider"
)

// App holds application dependencies built by Wire.
type App struct {
	Config  *app.Config
	Log     *slog.Logger
	DP      provider.DataProvider
	Service *ohlcv.Service
}
