// Package cache memoizes derived report views. Entries are keyed on the
// inputs that produced them and dropped wholesale when the ledger changes.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is a keyed store of derived values. Backends treat their own
// failures as misses so a broken cache never fails a request.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, data T)
	Delete(ctx context.Context, key string)
	// Purge drops every entry.
	Purge(ctx context.Context)
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// Cleaner is implemented by caches that need periodic expiry sweeps.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic cleanup for registered caches.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache. Call before StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup sweeps all registered caches every interval until Stop is
// called or ctx ends.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	m.started = true
	go m.cleanup(ctx, interval)
}

func (m *Manager) cleanup(ctx context.Context, interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanAll(); n > 0 {
				slog.DebugContext(ctx, "Expired cache entries removed", "count", n)
			}
		case <-m.stopCleanup:
			return
		case <-ctx.Done():
			return
		}
	}
}

// CleanAll sweeps every registered cache once and returns the number of
// entries removed.
func (m *Manager) CleanAll() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup goroutine and waits for it to exit.
func (m *Manager) Stop() {
	if !m.started {
		return
	}
	m.started = false
	close(m.stopCleanup)
	<-m.cleanupDone
}
