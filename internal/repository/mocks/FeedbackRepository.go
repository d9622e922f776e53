package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"costume-swap/internal/domain"
)

// FeedbackRepository 是 repository.FeedbackRepository 的 mock 实现。
type FeedbackRepository struct {
	mock.Mock
}

func (m *FeedbackRepository) Append(ctx context.Context, feedback domain.Feedback) error {
	ret := m.Called(ctx, feedback)
	return ret.Error(0)
}

func (m *FeedbackRepository) List(ctx context.Context) ([]domain.Feedback, error) {
	ret := m.Called(ctx)
	var list []domain.Feedback
	if v := ret.Get(0); v != nil {
		list = v.([]domain.Feedback)
	}
	return list, ret.Error(1)
}
