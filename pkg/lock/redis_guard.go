package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const guardKeyPrefix = "leadflow:run:"

// RedisGuard serializes runs across processes with SET NX. The TTL bounds how
// long an abandoned run can block its lead.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) TryAcquire(ctx context.Context, leadID uuid.UUID) (bool, error) {
	return g.client.SetNX(ctx, guardKeyPrefix+leadID.String(), "1", g.ttl).Result()
}

func (g *RedisGuard) Release(ctx context.Context, leadID uuid.UUID) error {
	return g.client.Del(ctx, guardKeyPrefix+leadID.String()).Err()
}
