package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-gnap/core"
)

// Redis adapts a go-redis client to the expiring cache contract. Key
// layout and TTL semantics are identical to the in-process cache, so
// deployments can swap between the two without re-keying.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// NewRedisFromAddr dials a single-node Redis at addr.
func NewRedisFromAddr(addr string) *Redis {
	return NewRedis(redis.NewClient(&redis.Options{Addr: addr}))
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r == nil || r.client == nil {
		return nil, false, errors.New("cache: redis client is not configured")
	}
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (r *Redis) SetWithTTL(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if r == nil || r.client == nil {
		return errors.New("cache: redis client is not configured")
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// Ping verifies connectivity at startup.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errors.New("cache: redis client is not configured")
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

var _ core.ExpiringCache = (*Redis)(nil)
