package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"stock_etl/internal/feature/prices/domain/entity"
	"stock_etl/internal/feature/prices/usecase"
	"stock_etl/internal/platform/externalapi/alphavantage/dto"
)

// Fixed query shape of the daily endpoint.
const (
	queryFunction   = "TIME_SERIES_DAILY"
	queryOutputSize = "compact"
	queryDataType   = "json"
)

// statusError is a non-200 answer from the API.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("alphavantage http %d", e.code)
}

// AlphaVantageMarket はAlpha Vantage外部APIから日足データを取得するMarketRepository実装です。
type AlphaVantageMarket struct {
	cfg    Config
	client *http.Client
}

// AlphaVantageMarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*AlphaVantageMarket)(nil)

// NewAlphaVantageMarket creates a market client with the given config and HTTP client.
func NewAlphaVantageMarket(cfg Config, client *http.Client) *AlphaVantageMarket {
	return &AlphaVantageMarket{cfg: cfg, client: client}
}

// GetDailySeries fetches the compact daily series for ticker.
//
// Transport errors and 5xx responses are retried up to MaxRetries times with
// exponential backoff. A non-200 final status wraps usecase.ErrUpstreamStatus,
// a body without the series field wraps usecase.ErrSeriesMissing; any other
// error is an infrastructure failure.
func (a *AlphaVantageMarket) GetDailySeries(ctx context.Context, ticker string) (entity.RawTimeSeries, error) {
	var body dto.TimeSeriesDailyResponse

	op := func() error {
		b, err := a.fetch(ctx, ticker)
		if err != nil {
			return err
		}
		body = b
		return nil
	}
	notify := func(err error, next time.Duration) {
		slog.Warn("market request failed, retrying", "ticker", ticker, "error", err, "retry_in", next)
	}

	if err := backoff.RetryNotify(op, a.backOff(ctx), notify); err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return nil, fmt.Errorf("%s: %w: %w", ticker, se, usecase.ErrUpstreamStatus)
		}
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	if body.Series == nil {
		if reason := body.Reason(); reason != "" {
			return nil, fmt.Errorf("%s: %w: %s", ticker, usecase.ErrSeriesMissing, reason)
		}
		return nil, fmt.Errorf("%s: %w", ticker, usecase.ErrSeriesMissing)
	}
	return entity.RawTimeSeries(body.Series), nil
}

// fetch performs one GET. Errors that must not be retried are wrapped in backoff.Permanent.
func (a *AlphaVantageMarket) fetch(ctx context.Context, ticker string) (dto.TimeSeriesDailyResponse, error) {
	var body dto.TimeSeriesDailyResponse

	q := url.Values{}
	q.Set("function", queryFunction)
	q.Set("symbol", ticker)
	q.Set("outputsize", queryOutputSize)
	q.Set("datatype", queryDataType)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return body, backoff.Permanent(err)
	}
	req.Header.Set("x-rapidapi-key", a.cfg.AccessKey)
	req.Header.Set("x-rapidapi-host", a.cfg.Host)

	res, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return body, backoff.Permanent(err)
		}
		return body, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		se := &statusError{code: res.StatusCode}
		if res.StatusCode >= http.StatusInternalServerError {
			return body, se
		}
		return body, backoff.Permanent(se)
	}

	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return body, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return body, nil
}

func (a *AlphaVantageMarket) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if a.cfg.RetryBaseDelay > 0 {
		eb.InitialInterval = a.cfg.RetryBaseDelay
	}
	eb.MaxElapsedTime = 0
	retries := a.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}
