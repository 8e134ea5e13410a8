package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Purger drops expired entries from an in-process store and reports how many it removed.
// Redis-backed stores expire keys themselves and are never registered.
type Purger interface {
	PurgeExpired(now time.Time) int
}

// CleanupManager periodically purges expired banned tokens and 2FA challenges
// from the in-memory stores.
type CleanupManager struct {
	purgers  map[string]Purger
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(purgers map[string]Purger, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		purgers:  purgers,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task. It blocks until Stop is called or ctx is done.
func (cm *CleanupManager) Start(ctx context.Context) {
	if len(cm.purgers) == 0 || cm.interval <= 0 {
		return
	}

	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.RunOnce()
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce purges every registered store once and returns the total removed.
func (cm *CleanupManager) RunOnce() int {
	now := cm.now()
	total := 0
	for name, p := range cm.purgers {
		removed := p.PurgeExpired(now)
		if removed > 0 {
			cm.logger.Debug("expired entries purged", slog.String("store", name), slog.Int("removed", removed))
		}
		total += removed
	}
	return total
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
