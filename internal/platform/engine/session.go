// Package engine holds the per-run processing session: the database handle,
// the write parallelism and the run id. main opens one and closes it on every path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"stock_etl/internal/feature/prices/usecase"
	"stock_etl/internal/platform/config"
	"stock_etl/internal/platform/db"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("engine session closed")

// Session is a scoped processing session.
type Session struct {
	ID          uuid.UUID
	DB          *gorm.DB
	Parallelism int

	mu     sync.RWMutex
	closed bool
}

var _ usecase.ShardRunner = (*Session)(nil)

// Open connects to the store described by cfg and returns a session.
func Open(cfg config.DBConfig, parallelism int) (*Session, error) {
	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open engine session: %w", err)
	}
	return New(gdb, parallelism), nil
}

// New wraps an existing handle. Parallelism below 1 is treated as 1.
func New(gdb *gorm.DB, parallelism int) *Session {
	if parallelism < 1 {
		parallelism = 1
	}
	s := &Session{ID: uuid.New(), DB: gdb, Parallelism: parallelism}
	slog.Info("engine session opened", "session_id", s.ID.String(), "parallelism", parallelism)
	return s
}

// Run calls fn for i in [0, n) with at most Parallelism calls in flight.
// The first error cancels the context passed to the remaining calls.
func (s *Session) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Parallelism)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// Close releases the database handle. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	slog.Info("engine session closed", "session_id", s.ID.String())
	return nil
}
