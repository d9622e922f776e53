package jsonfile

import (
	"context"
	"fmt"
	"sync"

	"costume-swap/internal/domain"
	"costume-swap/internal/repository"
)

// FeedbackRepository 是 repository.FeedbackRepository 的 JSON 文件实现，
// 文件内容是按提交顺序排列的反馈数组。
type FeedbackRepository struct {
	path      string
	mu        sync.RWMutex
	feedbacks []domain.Feedback
}

var _ repository.FeedbackRepository = (*FeedbackRepository)(nil)

// NewFeedbackRepository 打开 (必要时创建) 反馈文件并加载到内存。
func NewFeedbackRepository(path string) (*FeedbackRepository, error) {
	if err := ensureFile(path, []domain.Feedback{}); err != nil {
		return nil, err
	}
	feedbacks := []domain.Feedback{}
	if err := readJSON(path, &feedbacks); err != nil {
		return nil, err
	}
	return &FeedbackRepository{path: path, feedbacks: feedbacks}, nil
}

// Append 追加一条反馈并重写整个文件
func (r *FeedbackRepository) Append(_ context.Context, feedback domain.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.feedbacks = append(r.feedbacks, feedback.Clone())
	if err := writeJSON(r.path, r.feedbacks); err != nil {
		r.feedbacks = r.feedbacks[:len(r.feedbacks)-1]
		return fmt.Errorf("jsonfile: append feedback: %w", err)
	}
	return nil
}

// List 按提交顺序返回所有反馈的副本
func (r *FeedbackRepository) List(_ context.Context) ([]domain.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Feedback, len(r.feedbacks))
	for i, f := range r.feedbacks {
		out[i] = f.Clone()
	}
	return out, nil
}
