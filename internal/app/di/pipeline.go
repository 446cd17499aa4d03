package di

import (
	"io"
	"log/slog"

	priceadapters "stock_etl/internal/feature/prices/adapters"
	"stock_etl/internal/feature/prices/usecase"
	"stock_etl/internal/platform/config"
	"stock_etl/internal/platform/engine"
	"stock_etl/internal/platform/events"
	"stock_etl/internal/shared/ratelimiter"
)

// NewPublisher returns the Kafka run publisher, or nil when no brokers are configured.
// The closer is nil exactly when the publisher is.
func NewPublisher(cfg config.KafkaConfig) (usecase.RunPublisher, io.Closer) {
	if len(cfg.Brokers) == 0 {
		slog.Info("kafka not configured; run summaries will not be published")
		return nil, nil
	}
	p := events.NewProducer(cfg.Brokers, cfg.Topic)
	return p, p
}

// NewPipeline assembles extract, transform and load over the session's database.
// market, publisher and cache may be substituted; nil publisher and cache disable them.
func NewPipeline(
	cfg *config.Config,
	session *engine.Session,
	market usecase.MarketRepository,
	publisher usecase.RunPublisher,
	cache usecase.CacheInvalidator,
) *usecase.PipelineUsecase {
	repo := priceadapters.NewPriceRepository(session.DB, cfg.DB.Table)
	limiter := ratelimiter.NewRateLimiter(cfg.ETL.RateLimit, cfg.ETL.RatePause)

	extract := usecase.NewExtractUsecase(market, limiter)
	transform := usecase.NewTransformUsecase(repo, usecase.TransformOptions{
		WatermarkFilter: cfg.ETL.WatermarkFilter,
		Shards:          cfg.ETL.Shards,
	})
	load := usecase.NewLoadUsecase(repo, session, usecase.LoadMode(cfg.ETL.LoadMode), cache)

	return usecase.NewPipelineUsecase(extract, transform, load, publisher)
}
