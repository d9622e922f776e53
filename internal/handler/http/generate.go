package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"costume-swap/internal/middleware"
	"costume-swap/internal/service"
)

// Generator 执行一次换脸生成
type Generator interface {
	Generate(ctx context.Context, username string, userPhoto, costumePhoto []byte) (*service.GenerateResult, error)
}

// GenerateHandler 处理图片上传和生成请求
type GenerateHandler struct {
	generator      Generator
	maxUploadBytes int64
}

// NewGenerateHandler 创建 GenerateHandler 实例。maxUploadBytes 限制整个请求体大小。
func NewGenerateHandler(generator Generator, maxUploadBytes int64) *GenerateHandler {
	return &GenerateHandler{generator: generator, maxUploadBytes: maxUploadBytes}
}

// Generate 处理 multipart 表单中的 userPhoto 和 costumePhoto。
// 成功时返回 {"success":true,"imageUrl":"/static/results/result_YYYYMMDD_HHMMSS_<8位十六进制>.jpg","message":"图像生成成功"}，
// 时间戳后的随机后缀避免同一秒内的结果互相覆盖。
func (h *GenerateHandler) Generate(c *gin.Context) {
	username := middleware.Username(c)
	logCtx := logrus.WithField("username", username)

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	userPhoto, err := readFormFile(c, "userPhoto")
	if err == nil {
		var costumePhoto []byte
		costumePhoto, err = readFormFile(c, "costumePhoto")
		if err == nil {
			h.run(c, username, userPhoto, costumePhoto)
			return
		}
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		logCtx.WithError(err).Warn("Handler.Generate: Upload too large")
		ErrorResponse(c, http.StatusBadRequest, fmt.Sprintf("上传文件过大，最大 %d MB", h.maxUploadBytes>>20))
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		logCtx.WithError(err).Warn("Handler.Generate: Missing photo")
		HandleServiceError(c, service.ErrMissingPhoto)
	default:
		logCtx.WithError(err).Warn("Handler.Generate: Failed to read upload")
		HandleServiceError(c, fmt.Errorf("%w: %v", service.ErrDecode, err))
	}
}

func (h *GenerateHandler) run(c *gin.Context, username string, userPhoto, costumePhoto []byte) {
	result, err := h.generator.Generate(c.Request.Context(), username, userPhoto, costumePhoto)
	if err != nil {
		logrus.WithError(err).WithField("username", username).Warn("Handler.Generate: Generation failed")
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"success":  true,
		"imageUrl": result.ImageURL,
		"message":  "图像生成成功",
	})
}

func readFormFile(c *gin.Context, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	return readFileHeader(header)
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
