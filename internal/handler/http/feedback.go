package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"costume-swap/internal/domain"
	"costume-swap/internal/middleware"
	"costume-swap/internal/service"
)

// FeedbackHandler 处理用户反馈
type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

// NewFeedbackHandler 创建 FeedbackHandler 实例
func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// Submit 接收任意 JSON 对象并追加到反馈日志
func (h *FeedbackHandler) Submit(c *gin.Context) {
	username := middleware.Username(c)

	// UseNumber 保留数字的原始文本，超过 2^53 的整数不会被改写
	var fields map[string]any
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		logrus.WithError(err).WithField("username", username).Warn("Handler.SubmitFeedback: Invalid body")
		HandleServiceError(c, service.ErrInvalidFeedback)
		return
	}

	if _, err := h.feedbackService.Submit(c.Request.Context(), username, fields); err != nil {
		if errors.Is(err, service.ErrInvalidFeedback) {
			HandleServiceError(c, err)
			return
		}
		logrus.WithError(err).WithField("username", username).Error("Handler.SubmitFeedback: Failed to save feedback")
		ErrorResponse(c, http.StatusInternalServerError, "提交反馈失败: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"success": true, "message": "反馈提交成功"})
}

// List 按提交顺序返回全部反馈
func (h *FeedbackHandler) List(c *gin.Context) {
	feedbacks, err := h.feedbackService.List(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Handler.ListFeedbacks: Failed to load feedbacks")
		ErrorResponse(c, http.StatusInternalServerError, "获取反馈失败: "+err.Error())
		return
	}
	if feedbacks == nil {
		feedbacks = []domain.Feedback{}
	}
	SuccessResponse(c, http.StatusOK, feedbacks)
}
