// Package health provides readiness checks for the service's upstream
// dependencies.
package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisChecker checks the Redis instance that backs shared rate limiting.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{
		client: client,
	}
}

// HealthCheck sends a PING.
func (r *RedisChecker) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
