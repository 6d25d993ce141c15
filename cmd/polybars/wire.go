//go:build wireinject
// +build wireinject

package main

import (
	"polybars/internal/app"

	"github.com/google/wire"
)

// InitializeApp builds App (Config, logger, DataProvider and Service) via Wire.
// Caller must call the cleanup when done.
func InitializeApp() (*App, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideCodec,
		app.ProvideDataProvider,
		app.ProvideFileLock,
		app.ProvideCoordinator,
		app.ProvideService,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
