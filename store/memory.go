package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Backend is an in-memory TTL key-value backend for development and tests.
// Connections returned by Dialer share the backend, each with its own key prefix.
type Backend struct {
	mux     sync.Mutex
	entries map[string]*entry
	gets    map[string]int
	// Now returns current time; tests may override it to move expiry forward.
	Now func() time.Time
	// DialError, when set, is returned by every subsequent dial.
	DialError error
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{
		entries: map[string]*entry{},
		gets:    map[string]int{},
		Now:     time.Now,
	}
}

// Dialer returns a Dialer opening connections to this backend.
func (b *Backend) Dialer() Dialer {
	return func(_ context.Context, config *Config) (Client, error) {
		b.mux.Lock()
		err := b.DialError
		b.mux.Unlock()
		if err != nil {
			return nil, err
		}
		return &memoryClient{backend: b, prefix: config.Prefix}, nil
	}
}

// GetCount returns number of Get calls issued for the absolute key.
func (b *Backend) GetCount(key string) int {
	b.mux.Lock()
	defer b.mux.Unlock()
	return b.gets[key]
}

// Has reports whether a live value is stored under the absolute key.
func (b *Backend) Has(key string) bool {
	b.mux.Lock()
	defer b.mux.Unlock()
	_, ok := b.lookup(key)
	return ok
}

// Keys returns sorted live absolute keys.
func (b *Backend) Keys() []string {
	b.mux.Lock()
	defer b.mux.Unlock()
	var result []string
	for k := range b.entries {
		if _, ok := b.lookup(k); ok {
			result = append(result, k)
		}
	}
	sort.Strings(result)
	return result
}

// lookup returns live entry, evicting expired one; caller holds the lock.
func (b *Backend) lookup(key string) (*entry, bool) {
	e, ok := b.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(b.Now()) {
		delete(b.entries, key)
		return nil, false
	}
	return e, true
}

func (b *Backend) put(key string, value []byte, ttl time.Duration) {
	e := &entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = b.Now().Add(ttl)
	}
	b.entries[key] = e
}

type memoryClient struct {
	backend *Backend
	prefix  string
	closed  bool
}

func (c *memoryClient) key(k string) string { return c.prefix + k }

func (c *memoryClient) SetIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	b := c.backend
	b.mux.Lock()
	defer b.mux.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	if _, ok := b.lookup(c.key(key)); ok {
		return false, nil
	}
	b.put(c.key(key), value, ttl)
	return true, nil
}

func (c *memoryClient) Exists(_ context.Context, key string) (bool, error) {
	b := c.backend
	b.mux.Lock()
	defer b.mux.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	_, ok := b.lookup(c.key(key))
	return ok, nil
}

func (c *memoryClient) Get(_ context.Context, key string) ([]byte, error) {
	b := c.backend
	b.mux.Lock()
	defer b.mux.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	b.gets[c.key(key)]++
	e, ok := b.lookup(c.key(key))
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (c *memoryClient) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b := c.backend
	b.mux.Lock()
	defer b.mux.Unlock()
	if c.closed {
		return ErrClosed
	}
	b.put(c.key(key), value, ttl)
	return nil
}

func (c *memoryClient) Delete(_ context.Context, key string) (bool, error) {
	b := c.backend
	b.mux.Lock()
	defer b.mux.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	_, ok := b.lookup(c.key(key))
	delete(b.entries, c.key(key))
	return ok, nil
}

func (c *memoryClient) Close() error {
	b := c.backend
	b.mux.Lock()
	c.closed = true
	b.mux.Unlock()
	return nil
}
