package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"stock_etl/internal/feature/prices/domain/entity"
)

// ErrDB はモックと期待値の間で共有されるセンチネルエラーです。
var ErrDB = errors.New("database error")

// mockMarketRepository is a mock implementation of the MarketRepository interface.
type mockMarketRepository struct {
	GetDailySeriesFunc func(ctx context.Context, ticker string) (entity.RawTimeSeries, error)
	Calls              []string
}

func (m *mockMarketRepository) GetDailySeries(ctx context.Context, ticker string) (entity.RawTimeSeries, error) {
	m.Calls = append(m.Calls, ticker)
	if m.GetDailySeriesFunc != nil {
		return m.GetDailySeriesFunc(ctx, ticker)
	}
	return nil, errors.New("GetDailySeriesFunc is not implemented")
}

// mockRateLimiter is a mock implementation of the RateLimiterInterface.
type mockRateLimiter struct {
	AfterRequestCalls int
	Err               error
}

func (m *mockRateLimiter) AfterRequest(ctx context.Context) error {
	m.AfterRequestCalls++
	// For testing purposes, return immediately without waiting
	return m.Err
}

// mockPriceRepository はPriceRepositoryのモック実装です。シャードの並列書き込みに備えてロックを持ちます。
type mockPriceRepository struct {
	MaxDateFunc      func(ctx context.Context) (entity.Watermark, error)
	AppendBatchFunc  func(ctx context.Context, rows []entity.PriceRow) error
	ReplaceBatchFunc func(ctx context.Context, rows []entity.PriceRow) error
	FindFunc         func(ctx context.Context, ticker string, limit int) ([]entity.PriceRow, error)

	mu          sync.Mutex
	MaxDateCall int
	Appended    [][]entity.PriceRow
	Replaced    [][]entity.PriceRow
}

func (m *mockPriceRepository) MaxDate(ctx context.Context) (entity.Watermark, error) {
	m.MaxDateCall++
	if m.MaxDateFunc != nil {
		return m.MaxDateFunc(ctx)
	}
	return entity.Watermark{}, nil
}

func (m *mockPriceRepository) AppendBatch(ctx context.Context, rows []entity.PriceRow) error {
	m.mu.Lock()
	m.Appended = append(m.Appended, rows)
	m.mu.Unlock()
	if m.AppendBatchFunc != nil {
		return m.AppendBatchFunc(ctx, rows)
	}
	return nil
}

func (m *mockPriceRepository) ReplaceBatch(ctx context.Context, rows []entity.PriceRow) error {
	m.mu.Lock()
	m.Replaced = append(m.Replaced, rows)
	m.mu.Unlock()
	if m.ReplaceBatchFunc != nil {
		return m.ReplaceBatchFunc(ctx, rows)
	}
	return nil
}

func (m *mockPriceRepository) Find(ctx context.Context, ticker string, limit int) ([]entity.PriceRow, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, ticker, limit)
	}
	return nil, errors.New("FindFunc is not implemented")
}

// sequentialRunner runs shard tasks one after another and stops at the first error.
type sequentialRunner struct {
	Runs int
}

func (r *sequentialRunner) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	r.Runs++
	for i := 0; i < n; i++ {
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

type mockInvalidator struct {
	Tickers [][]string
	Err     error
}

func (m *mockInvalidator) Invalidate(ctx context.Context, tickers []string) error {
	m.Tickers = append(m.Tickers, tickers)
	return m.Err
}

type mockPublisher struct {
	Published []entity.RunSummary
	Err       error
}

func (m *mockPublisher) Publish(ctx context.Context, s entity.RunSummary) error {
	m.Published = append(m.Published, s)
	return m.Err
}

// series builds a RawTimeSeries with complete OHLCV records for dates.
func series(dates ...string) entity.RawTimeSeries {
	s := entity.RawTimeSeries{}
	for _, d := range dates {
		s[d] = map[string]string{
			entity.FieldOpen:   "1.0",
			entity.FieldHigh:   "2.0",
			entity.FieldLow:    "0.5",
			entity.FieldClose:  "1.5",
			entity.FieldVolume: "1000",
		}
	}
	return s
}

// captureLogs routes the default slog logger into a buffer for the rest of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}
