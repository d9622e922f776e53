package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"costume-swap/internal/domain"
	"costume-swap/internal/repository"
)

// GenerationEnqueuer 把生成记录交给后台任务队列
type GenerationEnqueuer interface {
	EnqueueGenerationRecord(ctx context.Context, generation domain.Generation) error
}

// HistoryService 维护用户的生成历史
type HistoryService struct {
	repo     repository.GenerationRepository
	enqueuer GenerationEnqueuer
}

var _ GenerationRecorder = (*HistoryService)(nil)

// NewHistoryService 创建 HistoryService 实例。
// enqueuer 为 nil 时记录直接同步写入存储库。
func NewHistoryService(repo repository.GenerationRepository, enqueuer GenerationEnqueuer) *HistoryService {
	if repo == nil {
		panic("GenerationRepository cannot be nil for HistoryService")
	}
	return &HistoryService{repo: repo, enqueuer: enqueuer}
}

// RecordGeneration 记录一次生成，有队列时异步写入
func (s *HistoryService) RecordGeneration(ctx context.Context, generation domain.Generation) error {
	if s.enqueuer != nil {
		err := s.enqueuer.EnqueueGenerationRecord(ctx, generation)
		if err == nil {
			return nil
		}
		logrus.WithError(err).WithField("filename", generation.Filename).Warn("Failed to enqueue generation record, saving inline")
	}
	return s.Save(ctx, &generation)
}

// Save 直接写入存储库，供后台任务调用
func (s *HistoryService) Save(ctx context.Context, generation *domain.Generation) error {
	if err := s.repo.Save(ctx, generation); err != nil {
		return fmt.Errorf("save generation %s: %w", generation.Filename, err)
	}
	return nil
}

// ListForUser 返回用户最近的生成记录
func (s *HistoryService) ListForUser(ctx context.Context, username string, limit int) ([]domain.Generation, error) {
	return s.repo.ListByUsername(ctx, username, limit)
}
