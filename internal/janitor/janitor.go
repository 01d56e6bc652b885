// Package janitor reclaims idle sessions and their work folders.
package janitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/menta2k/noface/internal/utils"
)

// Sweeper evicts sessions untouched since cutoff
type Sweeper interface {
	Sweep(cutoff time.Time) []int64
}

// Janitor periodically evicts idle sessions and deletes stale per-user folders
type Janitor struct {
	sessions Sweeper
	root     string
	idle     time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
	done     chan struct{}
}

// New creates a janitor over the sessions store and the work folder root
func New(sessions Sweeper, root string, idle, interval time.Duration, logger *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Janitor{
		sessions: sessions,
		root:     root,
		idle:     idle,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Run sweeps every interval until ctx is cancelled or Stop is called
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("janitor started", zap.Duration("interval", j.interval), zap.Duration("idle", j.idle))

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("janitor stopped")
			return
		case <-j.done:
			j.logger.Info("janitor stopped")
			return
		case <-ticker.C:
			j.RunOnce()
		}
	}
}

// Stop ends Run
func (j *Janitor) Stop() {
	close(j.done)
}

// RunOnce performs a single sweep and returns what it removed
func (j *Janitor) RunOnce() (evicted []int64, removed []string) {
	cutoff := j.now().Add(-j.idle)

	if j.sessions != nil {
		evicted = j.sessions.Sweep(cutoff)
	}

	removed, err := utils.RemoveStaleDirs(j.root, cutoff)
	if err != nil {
		j.logger.Error("failed to clean work folders", zap.String("root", j.root), zap.Error(err))
	}

	if len(evicted) > 0 || len(removed) > 0 {
		j.logger.Info("cleanup finished",
			zap.Int("sessions_evicted", len(evicted)),
			zap.Int("folders_removed", len(removed)),
		)
	}
	return evicted, removed
}
