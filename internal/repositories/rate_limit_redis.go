package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore keeps login failures in a per-IP sorted set scored
// by failure time. It is a drop-in alternative to LoginFailureRepository
// for deployments that prefer keeping rate-limit state out of Postgres.
type RedisRateLimitStore struct {
	client *redis.Client
}

func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

func failureKey(ip string) string {
	return fmt.Sprintf("login_failures:%s", ip)
}

func (s *RedisRateLimitStore) RecordFailure(ctx context.Context, ip string, failedAt, expiresAt time.Time) error {
	key := failureKey(ip)

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(failedAt.UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.ExpireAt(ctx, key, expiresAt)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}

	return nil
}

func (s *RedisRateLimitStore) CountFailuresSince(ctx context.Context, ip string, since time.Time) (int, error) {
	key := failureKey(ip)

	// Prune entries that fell out of the window before counting.
	cutoff := strconv.FormatInt(since.UnixNano(), 10)
	if err := s.client.ZRemRangeByScore(ctx, key, "0", "("+cutoff).Err(); err != nil {
		return 0, fmt.Errorf("failed to prune login failures: %w", err)
	}

	count, err := s.client.ZCount(ctx, key, cutoff, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count login failures: %w", err)
	}

	return int(count), nil
}
