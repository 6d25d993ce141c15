package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"polybars/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("polybars failed", "error", err)
		os.Exit(1)
	}
}
