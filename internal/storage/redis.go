package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend maps every key to a plain Redis string. Commits run inside
// MULTI/EXEC and expiring keys use native Redis TTLs.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps client. The caller keeps ownership of the client.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (b *RedisBackend) Commit(ctx context.Context, writes []Write) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			if w.Delete {
				pipe.Del(ctx, w.Key)
				continue
			}
			pipe.Set(ctx, w.Key, w.Value, w.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("exec multi: %w", err)
	}
	return nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error { return nil }
