package repository

import (
	"context"

	"costume-swap/internal/domain"
)

// GenerationRepository 保存生成历史。
type GenerationRepository interface {
	// Save 保存一条生成记录。同一文件名重复保存视为成功 (任务重试时可能发生)。
	Save(ctx context.Context, generation *domain.Generation) error

	// ListByUsername 返回指定用户的生成记录，最新的在前。
	ListByUsername(ctx context.Context, username string, limit int) ([]domain.Generation, error)
}
