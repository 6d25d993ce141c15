package provider

import (
	"context"
	"log/slog"

	"polybars/internal/model"
	"polybars/internal/provider/polygon"
)

// PolygonProvider is a DataProvider implementation backed by the Polygon API.
type PolygonProvider struct {
	client  *polygon.Client
	fetcher *polygon.Fetcher
}

// NewPolygonProvider creates a new Polygon-backed DataProvider.
func NewPolygonProvider(cfg polygon.ClientConfig, baseURL, apiKey string, log *slog.Logger) *PolygonProvider {
	client := polygon.NewClient(cfg, log)
	return &PolygonProvider{
		client:  client,
		fetcher: polygon.NewFetcher(client, baseURL, apiKey, log),
	}
}

// GetName returns provider name
func (p *PolygonProvider) GetName() string {
	return "Polygon"
}

// FetchBars runs the aggregates pipeline for q.
func (p *PolygonProvider) FetchBars(ctx context.Context, q polygon.Query) ([]model.Bar, error) {
	return p.fetcher.Fetch(ctx, q)
}

// Close closes connections
func (p *PolygonProvider) Close() error {
	return p.client.Close()
}
