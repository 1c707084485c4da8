// Package testutil provides helpers for tests that need a storage backend.
package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

// NewRedisClient starts an in-memory Redis server and returns a client
// connected to it. Both are cleaned up when the test finishes.
func NewRedisClient(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}
