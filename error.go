package rsession

import "errors"

var (
	// ErrUnavailable indicates the backend could not be reached, authenticated or selected.
	ErrUnavailable = errors.New("session backend unavailable")
	// ErrNotOpen indicates an operation on a session that is not open.
	ErrNotOpen = errors.New("session is not open")
	// ErrInvalidOption indicates invalid configuration detected at construction time.
	ErrInvalidOption = errors.New("invalid session option")
	// ErrLockLost indicates the lock of a read session was released before its write.
	ErrLockLost = errors.New("session lock lost")
)
