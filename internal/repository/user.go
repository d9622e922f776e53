package repository

import (
	"context"

	"costume-swap/internal/domain"
)

// UserRepository 定义了账户数据的存储和检索操作。
type UserRepository interface {
	// FindByUsername 根据用户名查找用户。
	// 用户不存在时返回 ErrUserNotFound。
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// Create 保存一个新用户。
	// 用户名已存在时返回 ErrDuplicateEntry，且不改变已有记录。
	Create(ctx context.Context, user *domain.User) error

	// Count 返回已注册用户数。
	Count(ctx context.Context) (int64, error)
}
