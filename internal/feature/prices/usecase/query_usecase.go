package usecase

import (
	"context"

	"stock_etl/internal/feature/prices/domain/entity"
)

const (
	// DefaultLimit はクエリのデフォルト返却件数です。
	DefaultLimit = 100
	// MaxLimit は1回のクエリで返す最大件数です。
	MaxLimit = 5000
)

// QueryRepository は読み取り専用APIが利用するストレージの抽象です。
type QueryRepository interface {
	WatermarkReader
	PriceReader
}

// queryUsecase は保存済み株価の参照ユースケースです。
type queryUsecase struct {
	repo QueryRepository
}

// NewQueryUsecase はqueryUsecaseの新しいインスタンスを生成します。
func NewQueryUsecase(repo QueryRepository) *queryUsecase {
	return &queryUsecase{repo: repo}
}

// GetPrices は指定された銘柄の株価を新しい順に返します。
func (qu *queryUsecase) GetPrices(ctx context.Context, ticker string, limit int) ([]entity.PriceRow, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return qu.repo.Find(ctx, ticker, limit)
}

// GetWatermark はテーブルに保存されている最新日付を返します。
func (qu *queryUsecase) GetWatermark(ctx context.Context) (entity.Watermark, error) {
	return qu.repo.MaxDate(ctx)
}
