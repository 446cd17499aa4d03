package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stock_etl/internal/feature/prices/domain/entity"
)

// RunPublisher announces a finished run.
type RunPublisher interface {
	Publish(ctx context.Context, s entity.RunSummary) error
}

// Extractor, Transformer and Loader are the three pipeline stages.
type (
	Extractor interface {
		Extract(ctx context.Context, tickers []string) (ExtractResult, error)
	}
	Transformer interface {
		Transform(ctx context.Context, series []entity.TickerSeries) (*entity.PriceDataset, entity.Watermark, error)
	}
	Loader interface {
		Load(ctx context.Context, ds *entity.PriceDataset) (int, error)
	}
)

var (
	_ Extractor   = (*ExtractUsecase)(nil)
	_ Transformer = (*TransformUsecase)(nil)
	_ Loader      = (*LoadUsecase)(nil)
)

// PipelineUsecase runs extract, transform and load once, in that order.
type PipelineUsecase struct {
	extract   Extractor
	transform Transformer
	load      Loader
	publisher RunPublisher // nil disables run events
	now       func() time.Time
}

// NewPipelineUsecase は新しい PipelineUsecase を作成します。
func NewPipelineUsecase(extract Extractor, transform Transformer, load Loader, publisher RunPublisher) *PipelineUsecase {
	return &PipelineUsecase{
		extract:   extract,
		transform: transform,
		load:      load,
		publisher: publisher,
		now:       time.Now,
	}
}

// Run executes one pass over tickers. The returned summary is filled as far
// as the run got, also when an error is returned.
func (pu *PipelineUsecase) Run(ctx context.Context, runID uuid.UUID, tickers []string) (entity.RunSummary, error) {
	sum := entity.RunSummary{
		RunID:     runID,
		StartedAt: pu.now().UTC(),
		Requested: len(tickers),
	}
	slog.Info("run started", "run_id", runID.String(), "tickers", len(tickers))

	err := pu.run(ctx, tickers, &sum)

	sum.FinishedAt = pu.now().UTC()
	if err != nil {
		sum.Error = err.Error()
	}
	pu.publish(ctx, sum)

	if err != nil {
		return sum, err
	}
	slog.Info("run finished",
		"run_id", runID.String(),
		"succeeded", sum.Succeeded,
		"skipped", len(sum.Skipped),
		"rows", sum.Rows,
		"written", sum.Written,
		"elapsed", sum.FinishedAt.Sub(sum.StartedAt),
	)
	return sum, nil
}

func (pu *PipelineUsecase) run(ctx context.Context, tickers []string, sum *entity.RunSummary) error {
	ext, err := pu.extract.Extract(ctx, tickers)
	sum.Succeeded = len(ext.Series)
	sum.Skipped = ext.Skipped
	if err != nil {
		return err
	}

	ds, wm, err := pu.transform.Transform(ctx, ext.Series)
	if err != nil {
		return err
	}
	sum.Watermark = wm.Date
	sum.Rows = ds.Len()

	written, err := pu.load.Load(ctx, ds)
	if err != nil {
		return err
	}
	sum.Written = written
	return nil
}

func (pu *PipelineUsecase) publish(ctx context.Context, sum entity.RunSummary) {
	if pu.publisher == nil {
		return
	}
	// 実行が中断されていてもサマリーは送る
	ctx = context.WithoutCancel(ctx)
	if err := pu.publisher.Publish(ctx, sum); err != nil {
		slog.Warn("failed to publish run summary", "run_id", sum.RunID.String(), "error", err)
	}
}
