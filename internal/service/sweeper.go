package service

import (
	"context"
	"time"

	"github.com/dtroode/auth-server/internal/logger"
	"github.com/dtroode/auth-server/internal/model"
)

// MaxSweepInterval bounds how long an expired ledger record may linger.
const MaxSweepInterval = time.Minute

// Sweeper periodically deletes expired refresh token records.
type Sweeper struct {
	store    model.RefreshTokenStore
	interval time.Duration
	logger   *logger.Logger
	now      func() time.Time
}

func NewSweeper(store model.RefreshTokenStore, interval time.Duration, logger *logger.Logger) *Sweeper {
	if interval <= 0 || interval > MaxSweepInterval {
		interval = MaxSweepInterval
	}
	return &Sweeper{store: store, interval: interval, logger: logger, now: time.Now}
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Sweep(ctx)
		}
	}
}

// Sweep deletes every record that has expired by now.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("Sweeper: failed to delete expired refresh tokens", "error", err.Error())
		return 0, err
	}
	if n > 0 {
		s.logger.Debug("Sweeper: deleted expired refresh tokens", "count", n)
	}
	return n, nil
}
