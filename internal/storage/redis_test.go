package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/brioso-market/internal/model"
)

func newRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBackend(client), mr
}

func TestRedisBackend_GetCommit(t *testing.T) {
	b, mr := newRedisBackend(t)
	ctx := context.Background()

	v, err := b.Get(ctx, "brioso_users")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, b.Commit(ctx, []Write{
		{Key: "brioso_users", Value: []byte(`[]`)},
		{Key: "brioso_cart_1", Value: []byte(`[{"productId":2,"quantity":1}]`)},
	}))
	got, err := mr.Get("brioso_cart_1")
	require.NoError(t, err)
	assert.Equal(t, `[{"productId":2,"quantity":1}]`, got)

	require.NoError(t, b.Commit(ctx, []Write{{Key: "brioso_cart_1", Delete: true}}))
	assert.False(t, mr.Exists("brioso_cart_1"))
	assert.NoError(t, b.Ping(ctx))
}

func TestRedisBackend_WithStore(t *testing.T) {
	b, _ := newRedisBackend(t)
	s := New(b, "brioso", discardLogger())
	ctx := context.Background()

	_, _, err := s.SeedIfEmpty(ctx)
	require.NoError(t, err)

	var users []model.User
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		users, err = tx.Users()
		return err
	}))
	assert.Len(t, users, 4)
}

func TestRedisBackend_TTL(t *testing.T) {
	b, mr := newRedisBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Commit(ctx, []Write{
		{Key: "brioso_current_user_s1", Value: []byte(`{"id":1}`), TTL: time.Hour},
		{Key: "brioso_users", Value: []byte(`[]`)},
	}))
	assert.Equal(t, time.Hour, mr.TTL("brioso_current_user_s1"))
	assert.Equal(t, time.Duration(0), mr.TTL("brioso_users"))

	mr.FastForward(time.Hour)
	v, err := b.Get(ctx, "brioso_current_user_s1")
	require.NoError(t, err)
	assert.Nil(t, v)
}
