package rsession

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/rsession/identity"
	"github.com/viant/rsession/lock"
	"github.com/viant/rsession/store"
)

func sequence(ids ...string) identity.Generator {
	var mux sync.Mutex
	i := 0
	return identity.GeneratorFunc(func() (string, error) {
		mux.Lock()
		defer mux.Unlock()
		if i >= len(ids) {
			return "", errors.New("sequence exhausted")
		}
		id := ids[i]
		i++
		return id, nil
	})
}

func newMemoryService(t *testing.T, backend *store.Backend, options ...Option) *Service {
	t.Helper()
	options = append([]Option{WithDialer(backend.Dialer()), WithLogger(NopLogger{})}, options...)
	service, err := New(context.Background(), options...)
	require.NoError(t, err)
	return service
}

func TestSession_Scenario(t *testing.T) {
	backend := store.NewBackend()
	service := newMemoryService(t, backend, WithGenerator(sequence("S1", "S2")))
	ctx := context.Background()

	// context A mints S1 and writes
	a := service.NewSession()
	require.NoError(t, a.Open(ctx))
	id, err := a.Mint()
	require.NoError(t, err)
	require.Equal(t, "S1", id)
	data, err := a.Read(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, data)
	require.NoError(t, a.Write(ctx, id, []byte(`{"k":"v"}`)))
	require.NoError(t, a.Close(ctx))
	assert.Equal(t, []string{"SESSIONS:S1"}, backend.Keys())

	// context B reads and destroys S1
	b := service.NewSession()
	require.NoError(t, b.Open(ctx))
	data, err = b.Read(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, `{"k":"v"}`, string(data))
	assert.Equal(t, "S1", b.ID())
	require.NoError(t, b.Destroy(ctx, "S1"))
	require.NoError(t, b.Close(ctx))
	assert.Empty(t, backend.Keys())

	// context C presents the destroyed S1 and gets S2
	c := service.NewSession()
	require.NoError(t, c.Open(ctx))
	data, err = c.Read(ctx, "S1")
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Equal(t, "S2", c.ID())
	require.NoError(t, c.Write(ctx, "S1", []byte(`{"stale":true}`)))
	require.NoError(t, c.Close(ctx))
	assert.False(t, backend.Has("SESSIONS:S1"))
	assert.False(t, backend.Has("SESSIONS:S1_lock"))
	assert.False(t, backend.Has("SESSIONS:S2_lock"))
}

func TestSession_NewSessionShortCircuit(t *testing.T) {
	backend := store.NewBackend()
	service := newMemoryService(t, backend)
	ctx := context.Background()
	session := service.NewSession()
	require.NoError(t, session.Open(ctx))
	id, err := session.Mint()
	require.NoError(t, err)

	data, err := session.Read(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Equal(t, 0, backend.GetCount("SESSIONS:"+id))
	assert.Equal(t, id, session.ID())
	assert.Equal(t, []string{id}, session.Held())
	assert.Equal(t, StateLocked, session.State())
	assert.True(t, backend.Has("SESSIONS:"+id+"_lock"))
	require.NoError(t, session.Close(ctx))
	assert.Empty(t, backend.Keys())
}

func TestSession_RoundTrip(t *testing.T) {
	backend := store.NewBackend()
	service := newMemoryService(t, backend)
	ctx := context.Background()
	random := rand.New(rand.NewSource(42))

	for _, size := range []int{0, 1, 17, 4096} {
		payload := make([]byte, size)
		random.Read(payload)

		writer := service.NewSession()
		require.NoError(t, writer.Open(ctx))
		id, err := writer.Mint()
		require.NoError(t, err)
		_, err = writer.Read(ctx, id)
		require.NoError(t, err)
		require.NoError(t, writer.Write(ctx, id, payload))
		require.NoError(t, writer.Close(ctx))

		reader := service.NewSession()
		require.NoError(t, reader.Open(ctx))
		data, err := reader.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, reader.ID(), "size %d", size)
		if size == 0 {
			assert.Empty(t, data)
		} else {
			assert.Equal(t, payload, data)
		}
		require.NoError(t, reader.Close(ctx))
	}
}

func TestSession_FixationRegeneration(t *testing.T) {
	backend := store.NewBackend()
	service := newMemoryService(t, backend)
	ctx := context.Background()

	session := service.NewSession()
	require.NoError(t, session.Start(ctx, "forged-id"))
	assert.NotEqual(t, "forged-id", session.ID())
	assert.True(t, session.Regenerated())
	assert.True(t, session.IsNewlyMinted(session.ID()))
	assert.Equal(t, 0, backend.GetCount("SESSIONS:forged-id"))
	assert.Empty(t, session.Values())

	require.NoError(t, session.Write(ctx, "forged-id", []byte("x")))
	session.Values().Set("user", "alice")
	require.NoError(t, session.Commit(ctx))
	assert.False(t, backend.Has("SESSIONS:forged-id"))
	assert.False(t, backend.Has("SESSIONS:forged-id_lock"))
	assert.True(t, backend.Has("SESSIONS:"+session.ID()))
}

func TestSession_ExpiredRecordIsRegenerated(t *testing.T) {
	now := time.Now()
	backend := store.NewBackend()
	backend.Now = func() time.Time { return now }
	service := newMemoryService(t, backend, WithLifetime(time.Minute))
	ctx := context.Background()

	first := service.NewSession()
	require.NoError(t, first.Start(ctx, ""))
	first.Values().Set("k", "v")
	require.NoError(t, first.Commit(ctx))
	id := first.ID()

	now = now.Add(2 * time.Minute)
	second := service.NewSession()
	require.NoError(t, second.Start(ctx, id))
	assert.True(t, second.Regenerated())
	assert.NotEqual(t, id, second.ID())
	assert.Empty(t, second.Values())
	require.NoError(t, second.Close(ctx))
}

func TestSession_IdempotentDestroyAndClose(t *testing.T) {
	backend := store.NewBackend()
	service := newMemoryService(t, backend)
	ctx := context.Background()

	session := service.NewSession()
	require.NoError(t, session.Start(ctx, ""))
	id := session.ID()
	require.NoError(t, session.Write(ctx, id, []byte("{}")))
	require.NoError(t, session.Destroy(ctx, id))
	require.NoError(t, session.Destroy(ctx, id))
	assert.Empty(t, session.Held())
	require.NoError(t, session.Commit(ctx))
	require.NoError(t, session.Close(ctx))
	require.NoError(t, session.Close(ctx))
	assert.False(t, backend.Has("SESSIONS:"+id))
	assert.False(t, backend.Has("SESSIONS:"+id+"_lock"))
	assert.Equal(t, StateClosed, session.State())
}

func TestSession_DestroyIgnoresOwnership(t *testing.T) {
	backend := store.NewBackend()
	service := newMemoryService(t, backend)
	ctx := context.Background()

	owner := service.NewSession()
	require.NoError(t, owner.Start(ctx, ""))
	require.NoError(t, owner.Write(ctx, owner.ID(), []byte("{}")))

	other := service.NewSession()
	require.NoError(t, other.Open(ctx))
	require.NoError(t, other.Destroy(ctx, owner.ID()))
	require.NoError(t, other.Close(ctx))
	assert.Empty(t, backend.Keys())
	require.NoError(t, owner.Close(ctx))
}

func TestSession_OpenFailure(t *testing.T) {
	backend := store.NewBackend()
	backend.DialError = errors.New("connection refused")
	service := newMemoryService(t, backend)
	ctx := context.Background()

	session := service.NewSession()
	err := session.Start(ctx, "S1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, session.Held())
	assert.Equal(t, StateClosed, session.State())
	require.NoError(t, session.Close(ctx))

	_, err = session.Read(ctx, "S1")
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, session.Write(ctx, "S1", nil), ErrNotOpen)
	assert.ErrorIs(t, session.Destroy(ctx, "S1"), ErrNotOpen)
}

func TestSession_GCIsNoop(t *testing.T) {
	backend := store.NewBackend()
	service := newMemoryService(t, backend)
	session := service.NewSession()
	assert.NoError(t, session.GC(context.Background()))
}

func TestSession_IDMutator(t *testing.T) {
	backend := store.NewBackend()
	service := newMemoryService(t, backend,
		WithGenerator(sequence("abc")),
		WithIDMutator(IdentifierMutatorFunc(func(id string) string { return "eu-" + id })))
	session := service.NewSession()
	require.NoError(t, session.Start(context.Background(), ""))
	assert.Equal(t, "eu-abc", session.ID())
	assert.True(t, session.IsNewlyMinted("eu-abc"))
	require.NoError(t, session.Close(context.Background()))
}

func TestSession_Watchdog(t *testing.T) {
	backend := store.NewBackend()
	watchdog := lock.NewWatchdog()
	service := newMemoryService(t, backend, WithWatchdog(watchdog))
	ctx := context.Background()

	session := service.NewSession()
	require.NoError(t, session.Start(ctx, ""))
	assert.Equal(t, 1, watchdog.Tracked())
	assert.Equal(t, 1, watchdog.ReleaseAll(ctx))
	assert.Empty(t, backend.Keys())
	require.NoError(t, session.Close(ctx))
	assert.Equal(t, 0, watchdog.Tracked())
}

func TestSession_WatchdogReleasedContextDoesNotWrite(t *testing.T) {
	backend := store.NewBackend()
	watchdog := lock.NewWatchdog(lock.WithMaxHold(time.Minute))
	service := newMemoryService(t, backend, WithWatchdog(watchdog))
	ctx := context.Background()

	seed := service.NewSession()
	require.NoError(t, seed.Start(ctx, ""))
	id := seed.ID()
	require.NoError(t, seed.Commit(ctx))

	stalled := service.NewSession()
	require.NoError(t, stalled.Start(ctx, id))
	stalled.Values().Incr("n")
	assert.Equal(t, 1, watchdog.Sweep(ctx, time.Now().Add(time.Hour)))
	assert.Empty(t, stalled.Held())

	next := service.NewSession()
	require.NoError(t, next.Start(ctx, id))
	next.Values().Incr("n")
	require.NoError(t, next.Commit(ctx))

	err := stalled.Commit(ctx)
	assert.ErrorIs(t, err, ErrLockLost)
	assert.Equal(t, StateClosed, stalled.State())

	check := service.NewSession()
	require.NoError(t, check.Start(ctx, id))
	assert.EqualValues(t, 1, check.Values().Get("n"))
	require.NoError(t, check.Close(ctx))
	assert.Equal(t, []string{"SESSIONS:" + id}, backend.Keys())
}

func TestNew_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		options []Option
	}{
		{name: "nil dialer", options: []Option{WithDialer(nil)}},
		{name: "nil serializer", options: []Option{WithSerializer(nil)}},
		{name: "invalid port", options: []Option{WithPort(0)}},
		{name: "empty host", options: []Option{WithHost("")}},
		{name: "non positive lifetime", options: []Option{WithLifetime(0)}},
		{name: "negative database", options: []Option{WithDatabase(-1)}},
		{name: "invalid backoff", options: []Option{WithBackoff(lock.Backoff{Min: 10 * time.Millisecond, Max: time.Millisecond})}},
	}
	for _, tc := range testCases {
		_, err := New(context.Background(), tc.options...)
		assert.ErrorIs(t, err, ErrInvalidOption, tc.name)
	}
	service, err := New(context.Background())
	require.NoError(t, err)
	options := service.Options()
	assert.Equal(t, "SESSIONS:", options.Prefix)
	assert.Equal(t, time.Hour, options.Lifetime)
	assert.Equal(t, 6379, options.Port)
}

func TestSession_ConcurrentContextsDoNotLoseUpdates(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	service, err := New(context.Background(), WithHost(host), WithPort(p), WithLogger(NopLogger{}))
	require.NoError(t, err)
	ctx := context.Background()

	seed := service.NewSession()
	require.NoError(t, seed.Start(ctx, ""))
	id := seed.ID()
	require.NoError(t, seed.Commit(ctx))

	const workers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			session := service.NewSession()
			if err := session.Start(ctx, id); err != nil {
				errCh <- err
				return
			}
			session.Values().Incr("visits")
			time.Sleep(2 * time.Millisecond)
			if err := session.Commit(ctx); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	reader := service.NewSession()
	require.NoError(t, reader.Start(ctx, id))
	assert.Equal(t, id, reader.ID())
	assert.EqualValues(t, workers, reader.Values().Get("visits"))
	require.NoError(t, reader.Close(ctx))
	for _, key := range mr.Keys() {
		assert.False(t, strings.HasSuffix(key, "_lock"), key)
	}
}
