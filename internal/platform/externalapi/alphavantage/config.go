// Package alphavantage provides a client for the Alpha Vantage daily time series API.
package alphavantage

import (
	"time"

	"stock_etl/internal/platform/config"
)

// Config holds configuration for the Alpha Vantage API client.
type Config struct {
	AccessKey      string        // RapidAPI key sent as x-rapidapi-key
	BaseURL        string        // Query endpoint (e.g., "https://alpha-vantage.p.rapidapi.com/query")
	Host           string        // Value of the x-rapidapi-host header
	Timeout        time.Duration // HTTP request timeout
	MaxRetries     int           // Retries on transport errors and 5xx responses
	RetryBaseDelay time.Duration // First backoff interval
}

// NewConfig derives the client configuration from the job configuration.
func NewConfig(api config.APIConfig) Config {
	return Config{
		AccessKey:      api.AccessKey,
		BaseURL:        api.URL,
		Host:           api.Host,
		Timeout:        api.Timeout,
		MaxRetries:     api.MaxRetries,
		RetryBaseDelay: time.Second,
	}
}
