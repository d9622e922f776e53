package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// SessionStateRepository 是 repository.SessionStateRepository 的 mock 实现。
type SessionStateRepository struct {
	mock.Mock
}

func (m *SessionStateRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	ret := m.Called(ctx, tokenID, ttl)
	return ret.Error(0)
}

func (m *SessionStateRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ret := m.Called(ctx, tokenID)
	return ret.Bool(0), ret.Error(1)
}
