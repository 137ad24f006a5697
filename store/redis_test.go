package store

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func miniConfig(t *testing.T, mr *miniredis.Miniredis) *Config {
	t.Helper()
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return &Config{Host: host, Port: p, Prefix: "SESSIONS:"}
}

func TestDialRedis_Operations(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	client, err := DialRedis(ctx, miniConfig(t, mr))
	require.NoError(t, err)
	defer client.Close()

	ok, err := client.SetIfAbsent(ctx, "abc_lock", []byte{}, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("SESSIONS:abc_lock"))
	assert.Equal(t, 30*time.Second, mr.TTL("SESSIONS:abc_lock"))

	ok, err = client.SetIfAbsent(ctx, "abc_lock", []byte{}, 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = client.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	exists, err := client.Exists(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, client.SetWithTTL(ctx, "abc", []byte(`{"k":"v"}`), time.Hour))
	data, err := client.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, `{"k":"v"}`, string(data))
	assert.Equal(t, time.Hour, mr.TTL("SESSIONS:abc"))

	deleted, err := client.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = client.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDialRedis_NoTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	client, err := DialRedis(ctx, miniConfig(t, mr))
	require.NoError(t, err)
	defer client.Close()

	ok, err := client.SetIfAbsent(ctx, "x_lock", nil, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), mr.TTL("SESSIONS:x_lock"))
}

func TestDialRedis_DatabaseAndAuth(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")
	ctx := context.Background()

	config := miniConfig(t, mr)
	_, err := DialRedis(ctx, config)
	require.Error(t, err)

	config.Auth = "s3cret"
	config.Database = 3
	client, err := DialRedis(ctx, config)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.SetWithTTL(ctx, "id", []byte("v"), time.Minute))

	value, err := mr.DB(3).Get("SESSIONS:id")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
	assert.False(t, mr.DB(0).Exists("SESSIONS:id"))
}

func TestDialRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	config := miniConfig(t, mr)
	mr.Close()
	_, err := DialRedis(context.Background(), config)
	assert.Error(t, err)
}
