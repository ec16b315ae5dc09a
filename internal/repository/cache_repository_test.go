package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

func TestCacheRepositoryRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	repo := NewCacheRepository(client, "pledge", nil)
	ctx := context.Background()

	var out []string
	require.ErrorIs(t, repo.Get(ctx, "rankings", &out), appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "rankings", []string{"1. Alice: 10 points"}, time.Minute))
	require.True(t, srv.Exists("pledge:rankings"))
	require.NoError(t, repo.Get(ctx, "rankings", &out))
	require.Equal(t, []string{"1. Alice: 10 points"}, out)

	require.NoError(t, repo.DeleteByPattern(ctx, "*"))
	require.False(t, srv.Exists("pledge:rankings"))
}

func TestCacheRepositoryDisabled(t *testing.T) {
	repo := NewCacheRepository(nil, "pledge", nil)
	ctx := context.Background()

	require.False(t, repo.Enabled())
	require.NoError(t, repo.Set(ctx, "k", 1, time.Minute))
	var out int
	require.ErrorIs(t, repo.Get(ctx, "k", &out), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Delete(ctx, "k"))
	require.NoError(t, repo.Ping(ctx))
}
