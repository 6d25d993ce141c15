package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"polybars/internal/app"
	"polybars/internal/cache"
)

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear TICKER|all",
		Short: "Remove cached year segments of a ticker, or all of them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ProvideConfig()
			if err != nil {
				return err
			}
			log, cleanup := app.ProvideLogger(cfg)
			defer cleanup()
			codec, err := app.ProvideCodec(cfg)
			if err != nil {
				return err
			}
			lock, err := app.ProvideFileLock(cfg)
			if err != nil {
				return err
			}
			// Clearing never fetches, so no provider or API key is needed.
			coord := cache.NewCoordinator(cache.NewStore(cfg.CacheDir, codec), cache.NewRegistry(), lock, nil, log)
			removed, err := coord.Clear(args[0])
			for _, name := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			if err != nil {
				return err
			}
			log.Info("cache cleared", "ticker", args[0], "files", len(removed), "dir", cfg.CacheDir)
			return nil
		},
	}
}
