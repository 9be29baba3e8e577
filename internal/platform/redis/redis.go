package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/andreypavlenko/matchday/internal/config"
	"github.com/redis/go-redis/v9"
)

// batchLockPrefix namespaces run-ownership keys from any other use of
// this Redis instance.
const batchLockPrefix = "matchday:batch-lock:"

// Client represents a Redis client
type Client struct {
	*redis.Client
}

// New creates a new Redis client
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to Redis: %w", err)
	}

	return &Client{Client: rdb}, nil
}

// Health checks the Redis health
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// AcquireBatchLock claims exclusive ownership of batchDate's partition
// (§5: "each run owns its batch_date partition exclusively") so two
// batchd processes can never race on the same day. It returns false
// without error if another run already holds the lock.
func (c *Client) AcquireBatchLock(ctx context.Context, batchDate string, owner string, ttl time.Duration) (bool, error) {
	ok, err := c.SetNX(ctx, batchLockPrefix+batchDate, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring batch lock for %s: %w", batchDate, err)
	}
	return ok, nil
}

// ReleaseBatchLock frees batchDate's partition, provided owner still
// holds it. A run that let its lock expire (crash, deadline overrun)
// must not clear a newer run's lock out from under it.
func (c *Client) ReleaseBatchLock(ctx context.Context, batchDate, owner string) error {
	const script = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`
	return c.Eval(ctx, script, []string{batchLockPrefix + batchDate}, owner).Err()
}
