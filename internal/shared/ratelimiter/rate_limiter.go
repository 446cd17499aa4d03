package ratelimiter

import (
	"context"
	"log/slog"
	"time"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	// AfterRequest は1回のリクエスト送信を記録し、必要であれば待機します。
	AfterRequest(ctx context.Context) error
}

// RateLimiter pauses for a fixed duration after every limit-th request.
// Requests are counted 1-indexed, so requests limit, 2*limit, ... trigger a pause.
// It is not safe for concurrent use.
type RateLimiter struct {
	limit int           // 何回ごとに停止するか
	pause time.Duration // 停止時間
	count int
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, pause time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		limit: limit,
		pause: pause,
		sleep: sleepContext,
	}
}

// WithSleep replaces the blocking sleep, e.g. to observe pauses without waiting.
func (rl *RateLimiter) WithSleep(fn func(ctx context.Context, d time.Duration) error) *RateLimiter {
	rl.sleep = fn
	return rl
}

// Count returns the number of requests recorded so far.
func (rl *RateLimiter) Count() int {
	return rl.count
}

// AfterRequest records a sent request and blocks for the pause duration when
// the count reaches a multiple of the limit.
func (rl *RateLimiter) AfterRequest(ctx context.Context) error {
	rl.count++
	if rl.count%rl.limit != 0 || rl.pause <= 0 {
		return nil
	}
	slog.Info("rate limit reached, pausing", "requests", rl.count, "pause", rl.pause)
	return rl.sleep(ctx, rl.pause)
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
