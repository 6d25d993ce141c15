package provider

import (
	"context"

	"polybars/internal/model"
	"polybars/internal/provider/polygon"
)

// DataProvider is the abstraction used by the application when accessing a data source.
// FetchBars returns an empty slice when nothing traded and model.ErrNoData when the
// source answered with an error.
type DataProvider interface {
	GetName() string
	FetchBars(ctx context.Context, q polygon.Query) ([]model.Bar, error)
	Close() error
}
