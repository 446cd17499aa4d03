// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_etl/internal/feature/prices/domain/entity"
	"stock_etl/internal/feature/prices/usecase"
)

const watermarkKey = "watermark"

// CachingPriceRepository decorates the read side of the price store with Redis caching.
// The ETL job calls Invalidate after a successful load.
type CachingPriceRepository struct {
	inner     usecase.QueryRepository
	rdb       *redis.Client
	ttl       time.Duration
	ttlFunc   func() time.Duration
	namespace string
}

var (
	_ usecase.QueryRepository  = (*CachingPriceRepository)(nil)
	_ usecase.CacheInvalidator = (*CachingPriceRepository)(nil)
)

// NewCachingPriceRepository decorates a QueryRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "prices".
func NewCachingPriceRepository(rdb *redis.Client, ttl time.Duration, inner usecase.QueryRepository, namespace string) *CachingPriceRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "prices"
	}
	return &CachingPriceRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// WithTTLFunc makes every write use the TTL returned by fn instead of the fixed one.
func (c *CachingPriceRepository) WithTTLFunc(fn func() time.Duration) *CachingPriceRepository {
	c.ttlFunc = fn
	return c
}

func (c *CachingPriceRepository) expiry() time.Duration {
	if c.ttlFunc != nil {
		if d := c.ttlFunc(); d > 0 {
			return d
		}
	}
	return c.ttl
}

// Find retrieves rows, checking cache first then falling back to the database.
func (c *CachingPriceRepository) Find(ctx context.Context, ticker string, limit int) ([]entity.PriceRow, error) {
	if c.rdb == nil {
		return c.inner.Find(ctx, ticker, limit)
	}

	key := c.cacheKey(ticker, limit)
	var out []entity.PriceRow
	if c.get(ctx, key, &out) {
		return out, nil
	}

	out, err := c.inner.Find(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, out)
	return out, nil
}

// MaxDate returns the cached watermark or reads it from the database.
func (c *CachingPriceRepository) MaxDate(ctx context.Context) (entity.Watermark, error) {
	if c.rdb == nil {
		return c.inner.MaxDate(ctx)
	}

	key := c.namespace + ":" + watermarkKey
	var wm entity.Watermark
	if c.get(ctx, key, &wm) {
		return wm, nil
	}

	wm, err := c.inner.MaxDate(ctx)
	if err != nil {
		return entity.Watermark{}, err
	}
	c.set(ctx, key, wm)
	return wm, nil
}

// Invalidate drops cached rows for tickers and the cached watermark.
func (c *CachingPriceRepository) Invalidate(ctx context.Context, tickers []string) error {
	if c.rdb == nil {
		return nil
	}

	var errs []error
	seen := map[string]struct{}{}
	for _, t := range tickers {
		prefix := c.cacheKeyPrefix(t)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		if err := c.deleteByPattern(ctx, prefix+"*"); err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", t, err))
		}
	}
	if err := c.rdb.Del(ctx, c.namespace+":"+watermarkKey).Err(); err != nil {
		errs = append(errs, fmt.Errorf("invalidate watermark: %w", err))
	}
	return errors.Join(errs...)
}

// get reports whether key held a decodable value. Corrupted entries are deleted.
func (c *CachingPriceRepository) get(ctx context.Context, key string, dst any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// set stores v as JSON (best effort).
func (c *CachingPriceRepository) set(ctx context.Context, key string, v any) {
	if b, err := json.Marshal(v); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.expiry()).Err()
	}
}

func (c *CachingPriceRepository) cacheKey(ticker string, limit int) string {
	return fmt.Sprintf("%s%d", c.cacheKeyPrefix(ticker), limit)
}

func (c *CachingPriceRepository) cacheKeyPrefix(ticker string) string {
	return fmt.Sprintf("%s:rows:%s:", c.namespace, safe(ticker))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingPriceRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
