package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "polybars",
		Short:         "Fetch and cache historical OHLCV bars from Polygon.io",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFetchCmd(), newClearCmd())
	return root
}
