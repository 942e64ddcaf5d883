package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var NilError = goredis.Nil

type Options = goredis.UniversalOptions
type Pipeliner = goredis.Pipeliner

// RedisAdapter is the key/value surface the ledger API needs. Keys passed to
// it are namespaced with the adapter's prefix; inside TxPipelined callers
// use Key to build the same names.
type RedisAdapter interface {
	Key(key string) string
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, keys ...string) error
	TxPipelined(ctx context.Context, fn func(Pipeliner) error) error
	Ping(ctx context.Context) error
	Close() error
}

type redisAdapter struct {
	prefix string
	conn   goredis.UniversalClient
}

// NewRedisAdapter connects and pings before returning.
func NewRedisAdapter(ctx context.Context, keysPrefix string, opts *Options) (RedisAdapter, error) {
	c := goredis.NewUniversalClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping %v: %w", opts.Addrs, err)
	}
	return &redisAdapter{conn: c, prefix: keysPrefix}, nil
}

// NewFromClient wraps an existing client without pinging it. Used by tests
// with miniredis.
func NewFromClient(keysPrefix string, c goredis.UniversalClient) RedisAdapter {
	return &redisAdapter{conn: c, prefix: keysPrefix}
}

func (r *redisAdapter) Key(key string) string {
	return r.prefix + key
}

func (r *redisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.conn.Set(ctx, r.Key(key), value, ttl).Err()
}

func (r *redisAdapter) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return r.conn.SetNX(ctx, r.Key(key), value, ttl).Result()
}

func (r *redisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	return r.conn.Get(ctx, r.Key(key)).Bytes()
}

func (r *redisAdapter) Del(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.Key(k)
	}
	return r.conn.Del(ctx, full...).Err()
}

// TxPipelined runs fn's commands in MULTI/EXEC.
func (r *redisAdapter) TxPipelined(ctx context.Context, fn func(Pipeliner) error) error {
	_, err := r.conn.TxPipelined(ctx, fn)
	return err
}

func (r *redisAdapter) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx).Err()
}

func (r *redisAdapter) Close() error {
	return r.conn.Close()
}
