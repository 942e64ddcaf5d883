package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisAdapter(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	adapter, err := NewRedisAdapter(ctx, "test:", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	defer adapter.Close()

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("test:k"), "keys carry the prefix")
	assert.Equal(t, "test:k", adapter.Key("k"))

	got, err := adapter.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	ok, err := adapter.SetNX(ctx, "k", []byte("w"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, adapter.Del(ctx, "k"))
	_, err = adapter.Get(ctx, "k")
	assert.ErrorIs(t, err, NilError)

	require.NoError(t, adapter.Ping(ctx))
}

func TestRedisAdapter_TxPipelined(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	adapter, err := NewRedisAdapter(ctx, "p:", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	defer adapter.Close()

	require.NoError(t, adapter.Set(ctx, "lock", []byte("1"), time.Minute))
	err = adapter.TxPipelined(ctx, func(p Pipeliner) error {
		p.Set(ctx, adapter.Key("done"), "42", time.Hour)
		p.Del(ctx, adapter.Key("lock"))
		return nil
	})
	require.NoError(t, err)

	assert.False(t, mr.Exists("p:lock"))
	v, err := mr.Get("p:done")
	require.NoError(t, err)
	assert.Equal(t, "42", v)
	assert.Equal(t, time.Hour, mr.TTL("p:done"))
}

func TestNewRedisAdapter_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisAdapter(context.Background(), "x:", &Options{Addrs: []string{addr}})
	assert.Error(t, err)
}
