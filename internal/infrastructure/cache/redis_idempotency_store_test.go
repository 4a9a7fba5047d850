//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	addr := startRedis(t)

	store, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer store.Close()

	isNew, err := store.MarkProcessed(ctx, "pay-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "pay-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)

	processed, err := store.IsProcessed(ctx, "pay-1")
	require.NoError(t, err)
	assert.True(t, processed)

	require.NoError(t, store.Release(ctx, "pay-1"))
	processed, err = store.IsProcessed(ctx, "pay-1")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestRedisIdempotencyStore_SharedAcrossInstances(t *testing.T) {
	ctx := context.Background()
	addr := startRedis(t)

	a, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer a.Close()
	b, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer b.Close()

	isNew, err := a.MarkProcessed(ctx, "pay-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = b.MarkProcessed(ctx, "pay-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew, "second instance sees the first instance's claim")
}
