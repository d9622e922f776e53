package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"costume-swap/internal/domain"
	"costume-swap/internal/repository/mocks"
	"costume-swap/internal/service"
)

type enqueuerFunc func(ctx context.Context, g domain.Generation) error

func (f enqueuerFunc) EnqueueGenerationRecord(ctx context.Context, g domain.Generation) error {
	return f(ctx, g)
}

func TestHistoryService_RecordUsesQueue(t *testing.T) {
	mockRepo := new(mocks.GenerationRepository)
	var queued []domain.Generation
	svc := service.NewHistoryService(mockRepo, enqueuerFunc(func(_ context.Context, g domain.Generation) error {
		queued = append(queued, g)
		return nil
	}))

	err := svc.RecordGeneration(context.Background(), domain.Generation{Username: "alice", Filename: "a.jpg"})
	require.NoError(t, err)
	assert.Len(t, queued, 1)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestHistoryService_RecordFallsBackToInlineSave(t *testing.T) {
	mockRepo := new(mocks.GenerationRepository)
	svc := service.NewHistoryService(mockRepo, enqueuerFunc(func(context.Context, domain.Generation) error {
		return errors.New("redis unavailable")
	}))
	ctx := context.Background()
	mockRepo.On("Save", ctx, mock.MatchedBy(func(g *domain.Generation) bool { return g.Filename == "a.jpg" })).Return(nil).Once()

	require.NoError(t, svc.RecordGeneration(ctx, domain.Generation{Username: "alice", Filename: "a.jpg"}))
	mockRepo.AssertExpectations(t)
}

func TestHistoryService_RecordWithoutQueue(t *testing.T) {
	mockRepo := new(mocks.GenerationRepository)
	svc := service.NewHistoryService(mockRepo, nil)
	ctx := context.Background()
	mockRepo.On("Save", ctx, mock.AnythingOfType("*domain.Generation")).Return(errors.New("db down")).Once()

	err := svc.RecordGeneration(ctx, domain.Generation{Filename: "b.jpg"})
	assert.Error(t, err)
}

func TestHistoryService_ListForUser(t *testing.T) {
	mockRepo := new(mocks.GenerationRepository)
	svc := service.NewHistoryService(mockRepo, nil)
	ctx := context.Background()
	want := []domain.Generation{{ID: 2, Username: "alice"}, {ID: 1, Username: "alice"}}
	mockRepo.On("ListByUsername", ctx, "alice", 20).Return(want, nil).Once()

	got, err := svc.ListForUser(ctx, "alice", 20)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
