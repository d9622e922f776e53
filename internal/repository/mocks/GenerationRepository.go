package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"costume-swap/internal/domain"
)

// GenerationRepository 是 repository.GenerationRepository 的 mock 实现。
type GenerationRepository struct {
	mock.Mock
}

func (m *GenerationRepository) Save(ctx context.Context, generation *domain.Generation) error {
	ret := m.Called(ctx, generation)
	return ret.Error(0)
}

func (m *GenerationRepository) ListByUsername(ctx context.Context, username string, limit int) ([]domain.Generation, error) {
	ret := m.Called(ctx, username, limit)
	var list []domain.Generation
	if v := ret.Get(0); v != nil {
		list = v.([]domain.Generation)
	}
	return list, ret.Error(1)
}
