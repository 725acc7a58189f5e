package sequence

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Generator hands out monotonically increasing ticket numbers. It replaces
// the ambient process-wide counter: creation paths receive a Generator and
// never touch shared mutable state directly.
type Generator interface {
	Next(ctx context.Context) (int64, error)
}

// FormatKey renders a ticket number as the external ticket key.
func FormatKey(n int64) string {
	return fmt.Sprintf("TCK-%06d", n)
}

type redisGenerator struct {
	client *redis.Client
	key    string
}

// NewRedisGenerator allocates numbers with Redis INCR, which stays correct
// across process restarts and multiple API instances.
func NewRedisGenerator(client *redis.Client, key string) Generator {
	return &redisGenerator{client: client, key: key}
}

func (g *redisGenerator) Next(ctx context.Context) (int64, error) {
	n, err := g.client.Incr(ctx, g.key).Result()
	if err != nil {
		return 0, fmt.Errorf("sequence incr: %w", err)
	}
	return n, nil
}

type memoryGenerator struct {
	counter atomic.Int64
}

// NewMemoryGenerator allocates numbers from an in-process atomic counter,
// seeded with the highest number already persisted. Single-instance
// deployments only.
func NewMemoryGenerator(seed int64) Generator {
	g := &memoryGenerator{}
	g.counter.Store(seed)
	return g
}

func (g *memoryGenerator) Next(ctx context.Context) (int64, error) {
	return g.counter.Add(1), nil
}
