// Command server serves a read-only HTTP API over the price table.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"stock_etl/internal/app/di"
	"stock_etl/internal/app/router"
	priceshandler "stock_etl/internal/feature/prices/transport/handler"
	"stock_etl/internal/feature/prices/usecase"
	"stock_etl/internal/platform/config"
	"stock_etl/internal/platform/db"
	"stock_etl/internal/platform/http/handler"
	jwtmw "stock_etl/internal/platform/jwt"
	"stock_etl/internal/platform/logger"
	infraredis "stock_etl/internal/platform/redis"
)

// The daily job runs at 08:00 UTC; cached reads expire then.
const dailyRunHourUTC = 8

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	issue := fs.String("issue-token", "", "print a read API token for the given client name and exit")
	ttl := fs.Duration("token-ttl", 30*24*time.Hour, "lifetime of tokens printed by -issue-token")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}
	slog.SetDefault(logger.New(os.Stderr, slog.LevelInfo))

	if *issue != "" {
		token, err := jwtmw.NewGenerator(cfg.Server.JWTSecret, *ttl).GenerateToken(*issue)
		if err != nil {
			slog.Error("failed to issue token", "error", err)
			return 1
		}
		fmt.Fprintln(stdout, token)
		return 0
	}

	if err := cfg.DB.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return 1
	}

	gdb, err := db.Open(cfg.DB)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		return 1
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		slog.Error("failed to get sql db", "error", err)
		return 1
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis
	var rdb *redisv9.Client
	if c, err := infraredis.NewRedisClient(ctx, cfg.Redis); err == nil {
		rdb = c
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	} else if !errors.Is(err, infraredis.ErrDisabled) {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
	}

	// Repository -> Usecase -> Handler
	repo := di.NewQueryRepository(gdb, cfg.DB.Table, rdb, dailyRunHourUTC)
	pricesH := priceshandler.NewPricesHandler(usecase.NewQueryUsecase(repo))
	healthH := handler.NewHealthHandler(sqlDB)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.NewRouter(healthH, pricesH, cfg.Server.JWTSecret),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("read API listening", "addr", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		return 1
	}
	return 0
}
