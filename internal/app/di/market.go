// Package di provides dependency injection factories for creating application components.
package di

import (
	"stock_etl/internal/platform/config"
	"stock_etl/internal/platform/externalapi/alphavantage"
	infrahttp "stock_etl/internal/platform/http"
)

// NewMarket creates a fully configured AlphaVantageMarket with HTTP client.
func NewMarket(api config.APIConfig) *alphavantage.AlphaVantageMarket {
	cfg := alphavantage.NewConfig(api)
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return alphavantage.NewAlphaVantageMarket(cfg, httpClient)
}
