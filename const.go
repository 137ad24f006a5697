package rsession

import "time"

// Default connection and session values.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 6379
	DefaultDatabase = 0
	DefaultPrefix   = "SESSIONS:"
	DefaultLifetime = time.Hour
	// DefaultLockTTL bounds how long an abandoned lock blocks other contexts.
	DefaultLockTTL = 30 * time.Second
)

type sessionKey string

// SessionKey is the key used to store the session in the context.
const SessionKey = sessionKey("rsession-session")
