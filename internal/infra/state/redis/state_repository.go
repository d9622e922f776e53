package redisstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"costume-swap/internal/repository"
)

// RedisSessionStateRepository 是 SessionStateRepository 接口的 Redis 实现。
// 每个被吊销的令牌 ID 对应一个带过期时间的 key，令牌自然过期后 key 随之消失。
type RedisSessionStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

var _ repository.SessionStateRepository = (*RedisSessionStateRepository)(nil)

// NewRedisSessionStateRepository 创建 RedisSessionStateRepository 实例
func NewRedisSessionStateRepository(client *redis.Client, keyPrefix string) *RedisSessionStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisSessionStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "cs:" // 默认前缀 "cs:" (costume swap)
	}
	return &RedisSessionStateRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisSessionStateRepository) revokedKey(tokenID string) string {
	return fmt.Sprintf("%ssession:revoked:%s", r.keyPrefix, tokenID)
}

// Revoke 记录令牌已注销。ttl <= 0 时令牌已过期，无需记录。
func (r *RedisSessionStateRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := r.revokedKey(tokenID)
	if err := r.client.Set(ctx, key, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to revoke session %s: %w", key, err)
	}
	return nil
}

// IsRevoked 检查令牌是否已注销
func (r *RedisSessionStateRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := r.revokedKey(tokenID)
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to check session %s: %w", key, err)
	}
	return n > 0, nil
}
