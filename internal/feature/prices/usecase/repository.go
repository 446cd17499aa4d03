// Package usecase implements the extract, transform and load steps of the price pipeline.
package usecase

import (
	"context"
	"errors"

	"stock_etl/internal/feature/prices/domain/entity"
)

// Errors a MarketRepository wraps to mark a ticker as skippable rather than fatal.
var (
	// ErrUpstreamStatus means the API answered with a non-200 status.
	ErrUpstreamStatus = errors.New("upstream returned non-200 status")
	// ErrSeriesMissing means the response had no daily time series field.
	ErrSeriesMissing = errors.New("response has no daily time series")
)

// MarketRepository fetches one ticker's daily series from the market data API.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	GetDailySeries(ctx context.Context, ticker string) (entity.RawTimeSeries, error)
}

// WatermarkReader returns the latest date stored in the target table.
type WatermarkReader interface {
	MaxDate(ctx context.Context) (entity.Watermark, error)
}

// PriceWriter persists one shard of rows.
type PriceWriter interface {
	// AppendBatch inserts rows without touching existing ones.
	AppendBatch(ctx context.Context, rows []entity.PriceRow) error
	// ReplaceBatch replaces any stored rows with the same (ticker, date) and inserts the rest.
	ReplaceBatch(ctx context.Context, rows []entity.PriceRow) error
}

// PriceReader reads stored rows for the read API.
type PriceReader interface {
	Find(ctx context.Context, ticker string, limit int) ([]entity.PriceRow, error)
}

// PriceRepository is the full storage port of the feature.
type PriceRepository interface {
	WatermarkReader
	PriceWriter
	PriceReader
}
