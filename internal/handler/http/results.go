package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"costume-swap/internal/repository"
)

// ResultHandler 提供生成结果图片的下载
type ResultHandler struct {
	store repository.ResultStore
}

// NewResultHandler 创建 ResultHandler 实例
func NewResultHandler(store repository.ResultStore) *ResultHandler {
	return &ResultHandler{store: store}
}

// Serve 返回 :filename 对应的结果图片
func (h *ResultHandler) Serve(c *gin.Context) {
	name := c.Param("filename")
	body, obj, err := h.store.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "文件不存在")
			return
		}
		logrus.WithError(err).WithField("filename", name).Error("Handler.ServeResult: Failed to open result")
		ErrorResponse(c, http.StatusInternalServerError, "读取结果失败")
		return
	}
	defer body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, max-age=86400")

	// 本地文件支持 Range 和条件请求
	if rs, ok := body.(io.ReadSeeker); ok {
		c.Header("Content-Type", contentType)
		http.ServeContent(c.Writer, c.Request, obj.Name, obj.ModTime, rs)
		return
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, body, nil)
}
