package rsession

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/rsession/identity"
	"github.com/viant/rsession/lock"
	"github.com/viant/rsession/store"
)

// State represents session lifecycle state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateLocked
)

// Session is the lifecycle controller of one execution context: open, read, write or destroy, close.
// A Session holds its own backend connection and must not be shared across goroutines.
type Session struct {
	service  *Service
	client   store.Client
	locks    *lock.Manager
	resolver *identity.Resolver
	untrack  func()
	state    State

	incoming  string
	id        string
	replaced  map[string]struct{}
	acquired  map[string]struct{}
	destroyed bool
	values    Values
}

// ID returns the effective session id.
func (s *Session) ID() string {
	return s.id
}

// Incoming returns the id supplied by the transport on Start.
func (s *Session) Incoming() string {
	return s.incoming
}

// Regenerated reports whether the incoming id was replaced by a newly minted one.
func (s *Session) Regenerated() bool {
	_, ok := s.replaced[s.incoming]
	return ok
}

// State returns lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Values returns application data; it is only populated after Start.
func (s *Session) Values() Values {
	return s.values
}

// Held returns ids locked by this session.
func (s *Session) Held() []string {
	if s.locks == nil {
		return nil
	}
	return s.locks.Held()
}

// Mint generates a new session id that read treats as new without a backend round trip.
func (s *Session) Mint() (string, error) {
	return s.resolver.Mint()
}

// IsNewlyMinted reports whether id was minted by this session.
func (s *Session) IsNewlyMinted(id string) bool {
	return s.resolver.IsNewlyMinted(id)
}

// Open establishes the backend connection. Opening an open session is a no-op.
func (s *Session) Open(ctx context.Context) error {
	if s.state != StateClosed {
		return nil
	}
	options := &s.service.options
	config := s.service.config
	client, err := options.Dialer(ctx, &config)
	if err != nil {
		options.Logger.Errorf("failed to open session backend %v: %v", config.Addr(), err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.client = client
	s.locks = lock.NewManager(client, s.service.lockOptions()...)
	if options.Watchdog != nil {
		s.untrack = options.Watchdog.Track(s.locks)
	}
	s.state = StateOpen
	return nil
}

// Read validates id, locks the effective id and returns its payload. When id is unknown to the
// backend and was not minted here, a new id is minted and used instead (see ID). Absent records
// read as an empty payload.
func (s *Session) Read(ctx context.Context, id string) ([]byte, error) {
	if s.state == StateClosed {
		return nil, ErrNotOpen
	}
	regenerate, err := s.resolver.MustRegenerate(ctx, s.client, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if regenerate {
		newID, err := s.resolver.Mint()
		if err != nil {
			return nil, err
		}
		s.replaced[id] = struct{}{}
		if id != "" {
			s.service.options.Logger.Debugf("session %v not found, regenerated as %v", id, newID)
		}
		id = newID
	}
	s.id = id
	if err = s.locks.Acquire(ctx, id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.state = StateLocked
	s.acquired[id] = struct{}{}
	if s.resolver.IsNewlyMinted(id) {
		return nil, nil
	}
	data, err := s.client.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to read session %v: %w", ErrUnavailable, id, err)
	}
	return data, nil
}

// Write stores payload under id with the configured lifetime. Writes for an id replaced by
// regeneration are dropped so that a forged or expired id is never resurrected. Writing an id
// read by this session after its lock was taken away fails with ErrLockLost.
func (s *Session) Write(ctx context.Context, id string, payload []byte) error {
	if s.state == StateClosed {
		return ErrNotOpen
	}
	if _, ok := s.replaced[id]; ok {
		s.service.options.Logger.Debugf("dropped write for replaced session %v", id)
		return nil
	}
	if _, ok := s.acquired[id]; ok && !s.locks.Holds(id) {
		s.service.options.Logger.Errorf("dropped write for session %v: lock no longer held", id)
		return fmt.Errorf("%w: %v", ErrLockLost, id)
	}
	if err := s.client.SetWithTTL(ctx, id, payload, s.service.options.Lifetime); err != nil {
		return fmt.Errorf("%w: failed to write session %v: %w", ErrUnavailable, id, err)
	}
	return nil
}

// Destroy deletes the session record and lock of id regardless of lock ownership.
// An empty id destroys the current session.
func (s *Session) Destroy(ctx context.Context, id string) error {
	if s.state == StateClosed {
		return ErrNotOpen
	}
	if id == "" {
		id = s.id
	}
	if _, err := s.client.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: failed to destroy session %v: %w", ErrUnavailable, id, err)
	}
	if err := s.locks.Release(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	delete(s.acquired, id)
	if id == s.id {
		s.destroyed = true
		s.values = Values{}
	}
	return nil
}

// Close releases every lock held by this session and closes the backend connection.
// Closing a closed session is a no-op.
func (s *Session) Close(ctx context.Context) error {
	if s.state == StateClosed {
		return nil
	}
	if s.untrack != nil {
		s.untrack()
		s.untrack = nil
	}
	err := s.locks.ReleaseAll(ctx)
	if cErr := s.client.Close(); cErr != nil {
		err = errors.Join(err, cErr)
	}
	s.state = StateClosed
	return err
}

// GC does nothing: record expiry is left to the backend TTL.
func (s *Session) GC(_ context.Context) error {
	return nil
}

// Start opens the session, mints an id when incoming is empty, reads and decodes the payload.
// On failure no lock is left held.
func (s *Session) Start(ctx context.Context, incoming string) error {
	s.incoming = incoming
	if err := s.Open(ctx); err != nil {
		return err
	}
	id := incoming
	if id == "" {
		var err error
		if id, err = s.Mint(); err != nil {
			_ = s.Close(ctx)
			return err
		}
	}
	data, err := s.Read(ctx, id)
	if err != nil {
		_ = s.Close(ctx)
		return err
	}
	values, err := s.service.options.Serializer.Unmarshal(data)
	if err != nil {
		s.service.options.Logger.Errorf("failed to decode session %v, starting empty: %v", s.id, err)
		values = Values{}
	}
	s.values = values
	s.destroyed = false
	return nil
}

// Commit encodes values, writes them under the current id unless destroyed, and closes the session.
func (s *Session) Commit(ctx context.Context) error {
	if s.state == StateClosed {
		return ErrNotOpen
	}
	var err error
	if !s.destroyed && s.id != "" {
		var data []byte
		if data, err = s.service.options.Serializer.Marshal(s.values); err == nil {
			err = s.Write(ctx, s.id, data)
		} else {
			err = fmt.Errorf("failed to encode session %v: %w", s.id, err)
		}
	}
	if cErr := s.Close(ctx); cErr != nil {
		err = errors.Join(err, cErr)
	}
	return err
}
