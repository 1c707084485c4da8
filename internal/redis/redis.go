// Package redis provides Redis connection management.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/allisson/challenge/internal/errors"
)

// Connect creates a Redis client from a connection URL and verifies
// connectivity with a ping.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis url")
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return client, nil
}

// HealthCheck verifies the Redis connection is alive.
func HealthCheck(ctx context.Context, client *redis.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return errors.Wrap(err, "redis health check failed")
	}
	return nil
}
