package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"costume-swap/internal/domain"
	"costume-swap/internal/repository"
)

// FeedbackService 负责用户反馈的提交和查询
type FeedbackService struct {
	repo repository.FeedbackRepository
	now  func() time.Time
}

// NewFeedbackService 创建 FeedbackService 实例
func NewFeedbackService(repo repository.FeedbackRepository) *FeedbackService {
	if repo == nil {
		panic("FeedbackRepository cannot be nil for FeedbackService")
	}
	return &FeedbackService{repo: repo, now: time.Now}
}

// Submit 保存一条反馈。username 和 timestamp 总是由服务端写入，客户端提交的同名字段被覆盖。
func (s *FeedbackService) Submit(ctx context.Context, username string, fields map[string]any) (domain.Feedback, error) {
	if fields == nil {
		return nil, ErrInvalidFeedback
	}
	feedback := domain.Feedback(fields).Clone()
	feedback.Stamp(username, s.now().Format(domain.FeedbackTimeLayout))

	if err := s.repo.Append(ctx, feedback); err != nil {
		logrus.WithError(err).WithField("username", username).Error("Failed to append feedback")
		return nil, err
	}
	logrus.WithField("username", username).Info("Feedback submitted")
	return feedback, nil
}

// List 按提交顺序返回全部反馈
func (s *FeedbackService) List(ctx context.Context) ([]domain.Feedback, error) {
	feedbacks, err := s.repo.List(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list feedbacks")
		return nil, err
	}
	return feedbacks, nil
}
