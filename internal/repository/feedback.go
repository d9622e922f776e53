package repository

import (
	"context"

	"costume-swap/internal/domain"
)

// FeedbackRepository 是只追加的反馈日志。
type FeedbackRepository interface {
	// Append 在日志末尾追加一条记录。
	Append(ctx context.Context, feedback domain.Feedback) error

	// List 按提交顺序返回全部记录。
	List(ctx context.Context) ([]domain.Feedback, error)
}
