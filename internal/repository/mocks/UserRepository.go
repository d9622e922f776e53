// Package mocks 提供基于 testify/mock 的存储库替身，供服务层测试使用。
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"costume-swap/internal/domain"
)

// UserRepository 是 repository.UserRepository 的 mock 实现。
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ret := m.Called(ctx, username)
	var user *domain.User
	if v := ret.Get(0); v != nil {
		user = v.(*domain.User)
	}
	return user, ret.Error(1)
}

func (m *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ret := m.Called(ctx, user)
	return ret.Error(0)
}

func (m *UserRepository) Count(ctx context.Context) (int64, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(int64), ret.Error(1)
}
