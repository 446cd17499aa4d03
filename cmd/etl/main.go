// Command etl runs the daily price pipeline once and exits.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	redisv9 "github.com/redis/go-redis/v9"

	"stock_etl/internal/app/di"
	"stock_etl/internal/platform/config"
	"stock_etl/internal/platform/engine"
	"stock_etl/internal/platform/logger"
	infraredis "stock_etl/internal/platform/redis"
)

func main() {
	os.Exit(run())
}

func run() int {
	dotenv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	log, logFile, err := logger.Open(cfg.LogFile, slog.LevelInfo, os.Stderr)
	if err != nil {
		slog.Error("failed to open log file", "path", cfg.LogFile, "error", err)
		return 1
	}
	defer logFile.Close()
	slog.SetDefault(log)
	slog.Info("configuration loaded", "dotenv", dotenv, "driver", cfg.DB.Driver, "tickers", len(cfg.ETL.Tickers))

	// 接続前に設定を検証する
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.ETL.RunTimeout)
	defer cancel()

	session, err := engine.Open(cfg.DB, cfg.ETL.Shards)
	if err != nil {
		slog.Error("failed to open engine session", "error", err)
		return 1
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Error("failed to close engine session", "error", err)
		}
	}()

	// Redis (optional): only used to invalidate the read API cache after a load
	var rdb *redisv9.Client
	if c, err := infraredis.NewRedisClient(ctx, cfg.Redis); err == nil {
		rdb = c
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	} else if !errors.Is(err, infraredis.ErrDisabled) {
		slog.Warn("Redis unavailable. Running without cache invalidation.", "error", err)
	}

	publisher, closer := di.NewPublisher(cfg.Kafka)
	if closer != nil {
		defer func() {
			if err := closer.Close(); err != nil {
				slog.Error("failed to close kafka producer", "error", err)
			}
		}()
	}

	pipeline := di.NewPipeline(
		cfg,
		session,
		di.NewMarket(cfg.API),
		publisher,
		di.NewCacheInvalidator(session.DB, cfg.DB.Table, rdb),
	)

	if _, err := pipeline.Run(ctx, session.ID, cfg.ETL.Tickers); err != nil {
		slog.Error("run failed", "run_id", session.ID.String(), "error", err)
		return 1
	}
	return 0
}
