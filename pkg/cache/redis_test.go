package cache

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pledge-points-api/pkg/config"
)

func TestNewRedisConnects(t *testing.T) {
	srv := miniredis.RunT(t)
	port, err := strconv.Atoi(srv.Port())
	require.NoError(t, err)

	client, err := NewRedis(context.Background(), config.RedisConfig{Enabled: true, Host: srv.Host(), Port: port})
	require.NoError(t, err)
	defer client.Close() //nolint:errcheck

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	srv.CheckGet(t, "k", "v")
}

func TestNewRedisDisabledOrUnreachable(t *testing.T) {
	_, err := NewRedis(context.Background(), config.RedisConfig{})
	require.Error(t, err)

	srv := miniredis.RunT(t)
	port, _ := strconv.Atoi(srv.Port())
	srv.Close()
	_, err = NewRedis(context.Background(), config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: port})
	require.Error(t, err)
}
