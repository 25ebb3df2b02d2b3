package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain/repository"
	"github.com/venue-map-service/internal/repository/cache"
)

func newTestCache(t *testing.T) (repository.CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewCacheRepository(cache.NewRedisFromClient(client, zap.NewNop())), mr
}

func TestCacheRepository_GetSet(t *testing.T) {
	repo, mr := newTestCache(t)
	ctx := context.Background()

	val, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Minute))
	val, err = repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	ok, err := repo.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = repo.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheRepository_Delete(t *testing.T) {
	repo, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, repo.Delete(ctx, "k"))
	require.NoError(t, repo.Delete(ctx, "k"))

	val, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestCacheRepository_DeleteByPrefix(t *testing.T) {
	repo, mr := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 450; i++ {
		require.NoError(t, repo.Set(ctx, fmt.Sprintf("places:cat:hotels:%d", i), []byte("x"), 0))
	}
	require.NoError(t, repo.Set(ctx, "places:cat:hospitals:zones", []byte("x"), 0))

	n, err := repo.DeleteByPrefix(ctx, "places:cat:hotels:")
	require.NoError(t, err)
	assert.Equal(t, 450, n)
	assert.Equal(t, []string{"places:cat:hospitals:zones"}, mr.Keys())
}

func TestCacheRepository_Unavailable(t *testing.T) {
	repo, mr := newTestCache(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "k")
	assert.Error(t, err)
	_, err = repo.DeleteByPrefix(context.Background(), "places:")
	assert.Error(t, err)
}
