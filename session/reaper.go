package session

import (
	"sync/atomic"
	"time"

	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/AdonayRH/wahisper-sub000/logging"
)

// Reaper periodically evicts inactive sessions from a store. It runs on
// its own goroutine; Start and Stop are both idempotent.
type Reaper struct {
	store    core.SessionStore
	maxIdle  time.Duration
	interval time.Duration
	logger   logging.Logger
	started  atomic.Bool
	stopped  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
}

// NewReaper builds a reaper. A nil logger disables logging.
func NewReaper(store core.SessionStore, maxIdle, interval time.Duration, logger logging.Logger) *Reaper {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Reaper{
		store:    store,
		maxIdle:  maxIdle,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the eviction loop. Subsequent calls are no-ops.
func (r *Reaper) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := r.store.EvictInactive(r.maxIdle); n > 0 {
					r.logger.Info("evicted inactive sessions", "count", n, "max_idle", r.maxIdle)
				}
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop terminates the loop and waits for it to exit. Safe to call without
// a prior Start and safe to call more than once.
func (r *Reaper) Stop() {
	if r.stopped.CompareAndSwap(false, true) {
		close(r.stop)
	}
	if r.started.Load() {
		<-r.done
	}
}
