//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/andreypavlenko/matchday/internal/config"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// TestBatchLock_ExclusiveOwnership exercises §3's run-ownership rule
// ("each run owns its batch_date partition exclusively") against a real
// Redis instance: a second run must not be able to acquire a batch_date
// another run already holds, and releasing with the wrong owner must be
// a no-op rather than stealing the lock.
func TestBatchLock_ExclusiveOwnership(t *testing.T) {
	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	defer func() { _ = ctr.Terminate(ctx) }()

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := New(ctx, config.RedisConfig{Host: host, Port: port.Port()})
	require.NoError(t, err)
	defer client.Close()

	const batchDate = "2026-07-31"

	acquired, err := client.AcquireBatchLock(ctx, batchDate, "run-a", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = client.AcquireBatchLock(ctx, batchDate, "run-b", time.Minute)
	require.NoError(t, err)
	require.False(t, acquired, "a second run must not win the same batch_date")

	require.NoError(t, client.ReleaseBatchLock(ctx, batchDate, "run-b"))
	acquired, err = client.AcquireBatchLock(ctx, batchDate, "run-b", time.Minute)
	require.NoError(t, err)
	require.False(t, acquired, "releasing with the wrong owner must not free the lock")

	require.NoError(t, client.ReleaseBatchLock(ctx, batchDate, "run-a"))
	acquired, err = client.AcquireBatchLock(ctx, batchDate, "run-b", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired, "the real owner's release must free the lock for the next run")
}
