// Package scheduler runs periodic in-process maintenance jobs for the API.
//
// Subtrack has a single recurring job: pruning expired sessions so the
// sessions table does not grow without bound. Expired sessions are already
// rejected at authentication time, so pruning is purely a storage concern
// and a missed run has no security impact.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPruneInterval is how often the session sweep runs when the caller
// does not specify an interval.
const DefaultPruneInterval = 1 * time.Hour

// SessionPruner deletes sessions past their expiry and reports how many
// rows were removed.
type SessionPruner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Maintenance owns the background sweep loop.
type Maintenance struct {
	sessions SessionPruner
	interval time.Duration
	logger   *slog.Logger
}

// NewMaintenance creates a maintenance runner. A non-positive interval falls
// back to DefaultPruneInterval.
func NewMaintenance(sessions SessionPruner, interval time.Duration, logger *slog.Logger) *Maintenance {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintenance{
		sessions: sessions,
		interval: interval,
		logger:   logger,
	}
}

// Run executes the sweep loop until ctx is cancelled. One sweep runs
// immediately on startup so a frequently restarted process still prunes.
func (m *Maintenance) Run(ctx context.Context) {
	m.sweep(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("maintenance loop stopped")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep runs a single pruning pass. Failures are logged and retried on the
// next tick; they never terminate the loop.
func (m *Maintenance) sweep(ctx context.Context) {
	deleted, err := m.sessions.DeleteExpired(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.ErrorContext(ctx, "session prune failed", "error", err)
		return
	}

	if deleted > 0 {
		m.logger.InfoContext(ctx, "pruned expired sessions", "count", deleted)
	}
}
