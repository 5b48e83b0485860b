package data

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis starts an in-process Redis and returns a client connected to it.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(srv.Close)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestRedisCacheRepo_Set_Get_Delete(t *testing.T) {
	srv, client := setupTestRedis(t)
	repo := NewRedisCacheRepo(client, "test:")
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		value := []byte(`{"id":"abc"}`)
		ttl := 5 * time.Minute

		require.NoError(t, repo.Set(ctx, "abc", value, ttl))

		result, err := repo.Get(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, value, result)

		// Keys are stored under the prefix with the requested TTL.
		assert.True(t, srv.Exists("test:abc"))
		assert.Equal(t, ttl, srv.TTL("test:abc"))
	})

	t.Run("get non-existent key", func(t *testing.T) {
		result, err := repo.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("delete existing key", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "gone", []byte("x"), time.Minute))

		deleted, err := repo.Delete(ctx, "gone")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("expired key reads as miss", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "short", []byte("x"), time.Second))
		srv.FastForward(2 * time.Second)

		result, err := repo.Get(ctx, "short")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		require.Error(t, repo.Set(ctx, "", []byte("x"), time.Minute))
		_, err := repo.Get(ctx, "")
		require.Error(t, err)
		_, err = repo.Delete(ctx, "")
		require.Error(t, err)
	})
}

func TestRedisCacheRepo_Health(t *testing.T) {
	srv, client := setupTestRedis(t)
	repo := NewRedisCacheRepo(client, "test:")

	require.NoError(t, repo.Health(context.Background()))

	srv.Close()
	assert.Error(t, repo.Health(context.Background()))
}
