package lock

import (
	"context"
	"sync"
	"time"
)

// Watchdog releases locks of execution contexts that never reach their own close:
// on shutdown every tracked manager is released, and with MaxHold set, managers
// holding locks for longer than MaxHold are force-released by a periodic sweep.
type Watchdog struct {
	mux      sync.Mutex
	managers map[*Manager]struct{}
	maxHold  time.Duration
	interval time.Duration
	timeout  time.Duration
	logger   Logger
	// OnRelease is invoked with ids released by the watchdog.
	OnRelease func(ids []string)
}

// WatchdogOption represents watchdog option
type WatchdogOption func(w *Watchdog)

// WithMaxHold sets the maximum time a context may hold its locks before the sweep releases them.
func WithMaxHold(d time.Duration) WatchdogOption {
	return func(w *Watchdog) { w.maxHold = d }
}

// WithInterval sets how often the sweep runs.
func WithInterval(d time.Duration) WatchdogOption {
	return func(w *Watchdog) { w.interval = d }
}

// WithReleaseTimeout bounds the final release on shutdown.
func WithReleaseTimeout(d time.Duration) WatchdogOption {
	return func(w *Watchdog) { w.timeout = d }
}

// WithWatchdogLogger sets logger.
func WithWatchdogLogger(logger Logger) WatchdogOption {
	return func(w *Watchdog) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatchdog creates a watchdog.
func NewWatchdog(options ...WatchdogOption) *Watchdog {
	ret := &Watchdog{
		managers: map[*Manager]struct{}{},
		interval: time.Second,
		timeout:  5 * time.Second,
		logger:   nopLogger{},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Track registers m until the returned function is called.
func (w *Watchdog) Track(m *Manager) func() {
	w.mux.Lock()
	w.managers[m] = struct{}{}
	w.mux.Unlock()
	return func() {
		w.mux.Lock()
		delete(w.managers, m)
		w.mux.Unlock()
	}
}

// Tracked returns number of tracked managers.
func (w *Watchdog) Tracked() int {
	w.mux.Lock()
	defer w.mux.Unlock()
	return len(w.managers)
}

func (w *Watchdog) snapshot() []*Manager {
	w.mux.Lock()
	defer w.mux.Unlock()
	result := make([]*Manager, 0, len(w.managers))
	for m := range w.managers {
		result = append(result, m)
	}
	return result
}

// Sweep releases managers holding locks since before now-MaxHold; it returns number of released managers.
func (w *Watchdog) Sweep(ctx context.Context, now time.Time) int {
	if w.maxHold <= 0 {
		return 0
	}
	released := 0
	for _, m := range w.snapshot() {
		since := m.HeldSince()
		if since.IsZero() || now.Sub(since) <= w.maxHold {
			continue
		}
		ids := m.Held()
		w.logger.Errorf("locks %v held longer than %s, releasing", ids, w.maxHold)
		_ = m.ReleaseAll(ctx)
		w.notify(ids)
		released++
	}
	return released
}

// ReleaseAll releases locks of every tracked manager.
func (w *Watchdog) ReleaseAll(ctx context.Context) int {
	released := 0
	for _, m := range w.snapshot() {
		ids := m.Held()
		if len(ids) == 0 {
			continue
		}
		if err := m.ReleaseAll(ctx); err != nil {
			w.logger.Errorf("watchdog release failed: %v", err)
		}
		w.notify(ids)
		released++
	}
	return released
}

func (w *Watchdog) notify(ids []string) {
	if w.OnRelease == nil {
		return
	}
	func() {
		defer func() { _ = recover() }()
		w.OnRelease(ids)
	}()
}

// Run sweeps until ctx is done, then releases every tracked lock.
func (w *Watchdog) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if w.maxHold > 0 && w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case now := <-tick:
			w.Sweep(ctx, now)
		case <-ctx.Done():
			releaseCtx, cancel := context.WithTimeout(context.Background(), w.timeout)
			if n := w.ReleaseAll(releaseCtx); n > 0 {
				w.logger.Debugf("watchdog released locks of %d sessions on shutdown", n)
			}
			cancel()
			return nil
		}
	}
}
