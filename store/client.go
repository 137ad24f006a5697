package store

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"
)

var (
	// ErrNotFound indicates no value is stored under the given key.
	ErrNotFound = errors.New("key not found")
	// ErrClosed indicates the connection has already been closed.
	ErrClosed = errors.New("connection closed")
)

// Client represents a connection to a TTL-capable key-value backend.
// Keys passed to a Client are relative; the connection applies its namespace prefix.
// Implementations must be atomic per key against a single backend instance.
type Client interface {
	// SetIfAbsent stores value under key only when the key does not exist. A non-positive ttl means no expiry.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL stores value under key replacing any previous value and expiry.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key; it reports whether the key existed. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) (bool, error)

	// Close releases the connection.
	Close() error
}

// Config defines backend connection attributes.
type Config struct {
	Host     string
	Port     int
	Auth     string
	Database int
	Prefix   string
}

// Addr returns host:port address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Dialer opens a connection, authenticates, selects the configured database and applies the key prefix.
type Dialer func(ctx context.Context, config *Config) (Client, error)
