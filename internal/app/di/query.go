package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	priceadapters "stock_etl/internal/feature/prices/adapters"
	"stock_etl/internal/feature/prices/usecase"
	"stock_etl/internal/platform/cache"
)

// NewQueryRepository returns the read repository, wrapped with the Redis cache when rdb is non-nil.
// Cached entries expire at the next daily run (runHourUTC).
func NewQueryRepository(db *gorm.DB, table string, rdb *redis.Client, runHourUTC int) usecase.QueryRepository {
	repo := priceadapters.NewPriceRepository(db, table)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingPriceRepository(rdb, time.Hour, repo, "prices").
		WithTTLFunc(func() time.Duration {
			return cache.TimeUntilNextRun(time.Now(), runHourUTC, time.UTC)
		})
}

// NewCacheInvalidator returns the cache invalidator for the ETL job, or nil without Redis.
func NewCacheInvalidator(db *gorm.DB, table string, rdb *redis.Client) usecase.CacheInvalidator {
	if rdb == nil {
		return nil
	}
	return cache.NewCachingPriceRepository(rdb, 0, priceadapters.NewPriceRepository(db, table), "prices")
}
