package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"stock_etl/internal/feature/prices/domain/entity"
)

// LoadMode selects how shards are written.
type LoadMode string

const (
	// LoadModeAppend inserts rows as they are; re-runs duplicate rows.
	LoadModeAppend LoadMode = "append"
	// LoadModeUpsert replaces stored rows with the same (ticker, date).
	LoadModeUpsert LoadMode = "upsert"
)

// ShardRunner runs n indexed tasks concurrently and returns the first error.
type ShardRunner interface {
	Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// CacheInvalidator drops cached reads for tickers after new rows land.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, tickers []string) error
}

// LoadUsecase はデータセットの各シャードを並列にテーブルへ書き込みます。
type LoadUsecase struct {
	writer PriceWriter
	runner ShardRunner
	mode   LoadMode
	cache  CacheInvalidator // nil の場合はキャッシュ無効化を行わない
}

// NewLoadUsecase は新しい LoadUsecase を作成します。空の mode は append として扱います。
func NewLoadUsecase(writer PriceWriter, runner ShardRunner, mode LoadMode, cache CacheInvalidator) *LoadUsecase {
	if mode == "" {
		mode = LoadModeAppend
	}
	return &LoadUsecase{writer: writer, runner: runner, mode: mode, cache: cache}
}

// Load writes every shard of ds and returns the number of rows written.
// A nil dataset is a no-op.
func (lu *LoadUsecase) Load(ctx context.Context, ds *entity.PriceDataset) (int, error) {
	if ds.Len() == 0 {
		slog.Warn("no data to load")
		return 0, nil
	}

	write := lu.writer.AppendBatch
	if lu.mode == LoadModeUpsert {
		write = lu.writer.ReplaceBatch
	}

	err := lu.runner.Run(ctx, len(ds.Shards), func(ctx context.Context, i int) error {
		shard := ds.Shards[i]
		if len(shard) == 0 {
			return nil
		}
		if err := write(ctx, shard); err != nil {
			return fmt.Errorf("write shard %d: %w", i, err)
		}
		slog.Debug("shard written", "shard", i, "rows", len(shard))
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.Info("data written successfully", "rows", ds.Len(), "shards", len(ds.Shards), "mode", string(lu.mode))

	if lu.cache != nil {
		if err := lu.cache.Invalidate(ctx, tickersOf(ds.Rows)); err != nil {
			// 書き込みは成功しているのでキャッシュの失敗は警告のみ
			slog.Warn("failed to invalidate price cache", "error", err)
		}
	}
	return ds.Len(), nil
}

func tickersOf(rows []entity.PriceRow) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Ticker]; ok {
			continue
		}
		seen[r.Ticker] = struct{}{}
		out = append(out, r.Ticker)
	}
	return out
}
