package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"costume-swap/internal/service"
)

// clientErrors 中的错误直接把哨兵错误的文案返回给客户端
var clientErrors = []error{
	service.ErrMissingPhoto,
	service.ErrDecode,
	service.ErrNoFaceDetected,
	service.ErrInvalidFeedback,
	service.ErrInvalidInput,
}

// HandleServiceError 把 Service 层错误映射为 HTTP 响应
func HandleServiceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrUnauthenticated) {
		ErrorResponse(c, http.StatusUnauthorized, service.ErrUnauthenticated.Error())
		return
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			ErrorResponse(c, http.StatusBadRequest, target.Error())
			return
		}
	}
	if errors.Is(err, service.ErrBusy) {
		ErrorResponse(c, http.StatusServiceUnavailable, service.ErrBusy.Error())
		return
	}

	logrus.WithError(err).Error("Unhandled internal server error")
	if errors.Is(err, service.ErrProcessing) {
		// 已带有 "处理过程中出现错误: " 前缀
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	ErrorResponse(c, http.StatusInternalServerError, service.ErrProcessing.Error()+": "+err.Error())
}
