package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Suffix is appended to a session id to derive its lock key.
const Suffix = "_lock"

// Key returns the lock key of a session id.
func Key(id string) string {
	return id + Suffix
}

// Backend represents the store primitives the lock needs.
type Backend interface {
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
}

// Logger defines the logging the lock manager emits.
type Logger interface {
	Debugf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Errorf(string, ...interface{}) {}

// Manager holds session locks of a single execution context.
// Locks are serialized by the backend's atomic set-if-absent; release does not verify ownership.
type Manager struct {
	backend Backend
	ttl     time.Duration
	backoff Backoff
	sleep   Sleeper
	logger  Logger

	mux   sync.Mutex
	held  []string
	since time.Time
}

// Option represents manager option
type Option func(m *Manager)

// WithTTL sets the lock record TTL, the last resort release of abandoned locks. Non-positive means no expiry.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithBackoff sets wait policy between attempts.
func WithBackoff(backoff Backoff) Option {
	return func(m *Manager) { m.backoff = backoff }
}

// WithSleeper replaces the wait implementation.
func WithSleeper(sleeper Sleeper) Option {
	return func(m *Manager) { m.sleep = sleeper }
}

// WithLogger sets logger.
func WithLogger(logger Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a lock manager.
func NewManager(backend Backend, options ...Option) *Manager {
	ret := &Manager{
		backend: backend,
		backoff: DefaultBackoff(),
		sleep:   Sleep,
		logger:  nopLogger{},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Acquire blocks until the lock on id is obtained, the backend fails, or ctx is done.
// Acquiring an id this manager already holds returns immediately.
func (m *Manager) Acquire(ctx context.Context, id string) error {
	if m.Holds(id) {
		return nil
	}
	key := Key(id)
	wait := m.backoff.Min
	for attempt := 0; ; attempt++ {
		ok, err := m.backend.SetIfAbsent(ctx, key, []byte{}, m.ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire lock %v: %w", key, err)
		}
		if ok {
			break
		}
		if attempt == 0 {
			m.logger.Debugf("session %v is locked, waiting", id)
		}
		if err = m.sleep(ctx, wait); err != nil {
			return fmt.Errorf("gave up on lock %v after %d attempts: %w", key, attempt+1, err)
		}
		wait = m.backoff.Next(wait)
	}
	m.mux.Lock()
	if len(m.held) == 0 {
		m.since = time.Now()
	}
	m.held = append(m.held, id)
	m.mux.Unlock()
	return nil
}

// Release deletes the lock record of id. Releasing a lock that is not held is a no-op.
func (m *Manager) Release(ctx context.Context, id string) error {
	m.mux.Lock()
	for i, candidate := range m.held {
		if candidate == id {
			m.held = append(m.held[:i], m.held[i+1:]...)
			break
		}
	}
	m.mux.Unlock()
	if _, err := m.backend.Delete(ctx, Key(id)); err != nil {
		return fmt.Errorf("failed to release lock %v: %w", Key(id), err)
	}
	return nil
}

// ReleaseAll releases every held lock and empties the held set.
func (m *Manager) ReleaseAll(ctx context.Context) error {
	m.mux.Lock()
	held := m.held
	m.held = nil
	m.since = time.Time{}
	m.mux.Unlock()
	var errs []error
	for _, id := range held {
		if _, err := m.backend.Delete(ctx, Key(id)); err != nil {
			m.logger.Errorf("failed to release lock %v: %v", Key(id), err)
			errs = append(errs, fmt.Errorf("failed to release lock %v: %w", Key(id), err))
		}
	}
	return errors.Join(errs...)
}

// Holds reports whether id is locked by this manager.
func (m *Manager) Holds(id string) bool {
	m.mux.Lock()
	defer m.mux.Unlock()
	for _, candidate := range m.held {
		if candidate == id {
			return true
		}
	}
	return false
}

// Held returns ids in acquisition order.
func (m *Manager) Held() []string {
	m.mux.Lock()
	defer m.mux.Unlock()
	return append([]string(nil), m.held...)
}

// HeldSince returns when the oldest held lock was taken, zero when nothing is held.
func (m *Manager) HeldSince() time.Time {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.since
}
