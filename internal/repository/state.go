package repository

import (
	"context"
	"time"
)

// SessionStateRepository 记录已注销的会话令牌。
// 会话本身保存在客户端签名令牌中，服务端只维护吊销集合。
type SessionStateRepository interface {
	// Revoke 将令牌 ID 标记为已吊销，直到 ttl 过期。
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error

	// IsRevoked 检查令牌 ID 是否已被吊销。
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
