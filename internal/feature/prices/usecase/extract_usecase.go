package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stock_etl/internal/feature/prices/domain/entity"
	"stock_etl/internal/shared/ratelimiter"
)

// ExtractResult は抽出ステップの結果です。
type ExtractResult struct {
	Series  []entity.TickerSeries
	Skipped []string
}

// ExtractUsecase は外部APIから銘柄ごとの日足データを取得するユースケースです。
type ExtractUsecase struct {
	market      MarketRepository
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewExtractUsecase は新しい ExtractUsecase を作成します。
func NewExtractUsecase(market MarketRepository, rateLimiter ratelimiter.RateLimiterInterface) *ExtractUsecase {
	return &ExtractUsecase{market: market, rateLimiter: rateLimiter}
}

// Extract は tickers を順番に1回ずつ取得します。
//
// ErrUpstreamStatus / ErrSeriesMissing の銘柄は警告を出してスキップします。
// それ以外のエラーは処理を中断して返します。1件も取得できなかった場合は
// Series が nil の結果を返します。
func (eu *ExtractUsecase) Extract(ctx context.Context, tickers []string) (ExtractResult, error) {
	var res ExtractResult

	for _, t := range tickers {
		series, err := eu.market.GetDailySeries(ctx, t)
		switch {
		case err == nil:
			res.Series = append(res.Series, entity.TickerSeries{Ticker: t, Series: series})
		case errors.Is(err, ErrUpstreamStatus), errors.Is(err, ErrSeriesMissing):
			// 1つの銘柄が失敗しても処理を止めずに次の銘柄へ
			slog.Warn("skipping ticker", "ticker", t, "error", err)
			res.Skipped = append(res.Skipped, t)
		default:
			return res, fmt.Errorf("extract %s: %w", t, err)
		}

		if err := eu.rateLimiter.AfterRequest(ctx); err != nil {
			return res, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	if len(res.Series) == 0 {
		slog.Warn("no records in api", "requested", len(tickers))
		res.Series = nil
		return res, nil
	}
	slog.Info("extract finished", "requested", len(tickers), "succeeded", len(res.Series), "skipped", len(res.Skipped))
	return res, nil
}
