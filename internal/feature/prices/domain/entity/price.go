// Package entity defines the domain models for the prices feature.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Field keys used by the daily time series payload.
const (
	FieldOpen   = "1. open"
	FieldHigh   = "2. high"
	FieldLow    = "3. low"
	FieldClose  = "4. close"
	FieldVolume = "5. volume"
)

// RawTimeSeries maps a calendar date ("2006-01-02") to the API's OHLCV record.
// All values are kept as the strings the API supplied.
type RawTimeSeries map[string]map[string]string

// TickerSeries is the extraction result for one ticker.
type TickerSeries struct {
	Ticker string
	Series RawTimeSeries
}

// PriceRow is one flattened (ticker, date) daily price.
type PriceRow struct {
	Ticker string  // Stock ticker symbol (e.g., "AAPL", "BRK.B")
	Date   string  // ISO calendar date
	Open   float64 // Opening price
	High   float64 // Highest price of the day
	Low    float64 // Lowest price of the day
	Close  float64 // Closing price
	Volume float64 // Traded volume
}

// PriceDataset is an ordered set of rows split into shards for parallel writes.
// Shard membership carries no meaning.
type PriceDataset struct {
	Rows   []PriceRow
	Shards [][]PriceRow
}

// NewPriceDataset partitions rows round-robin into n shards.
// n below 1 is treated as 1.
func NewPriceDataset(rows []PriceRow, n int) *PriceDataset {
	if n < 1 {
		n = 1
	}
	shards := make([][]PriceRow, n)
	for i, r := range rows {
		shards[i%n] = append(shards[i%n], r)
	}
	return &PriceDataset{Rows: rows, Shards: shards}
}

// Len returns the number of rows in the dataset. A nil dataset has no rows.
func (d *PriceDataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Watermark is the latest date already stored in the target table.
type Watermark struct {
	Date  string
	Valid bool // false when the table is empty
}

// Admits reports whether a row dated date lies strictly after the watermark.
// An invalid watermark admits every date.
func (w Watermark) Admits(date string) bool {
	if !w.Valid {
		return true
	}
	return date > w.Date
}

// RunSummary describes one pipeline run. It is published as JSON.
type RunSummary struct {
	RunID      uuid.UUID `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Requested  int       `json:"requested"`
	Succeeded  int       `json:"succeeded"`
	Skipped    []string  `json:"skipped,omitempty"`
	Rows       int       `json:"rows"`
	Written    int       `json:"written"`
	Watermark  string    `json:"watermark,omitempty"`
	Error      string    `json:"error,omitempty"`
}
