package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"costume-swap/internal/domain"
	"costume-swap/internal/middleware"
	"costume-swap/internal/service"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryHandler 返回当前用户的生成历史
type HistoryHandler struct {
	historyService *service.HistoryService
}

// NewHistoryHandler 创建 HistoryHandler 实例
func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// List 处理 GET /history?limit=N
func (h *HistoryHandler) List(c *gin.Context) {
	username := middleware.Username(c)

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ErrorResponse(c, http.StatusBadRequest, "limit 必须是正整数")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	generations, err := h.historyService.ListForUser(c.Request.Context(), username, limit)
	if err != nil {
		logrus.WithError(err).WithField("username", username).Error("Handler.ListHistory: Failed to load history")
		ErrorResponse(c, http.StatusInternalServerError, "获取历史记录失败")
		return
	}
	if generations == nil {
		generations = []domain.Generation{}
	}
	SuccessResponse(c, http.StatusOK, generations)
}
