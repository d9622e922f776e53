package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"costume-swap/internal/middleware"
)

// Index 显示主页面，需要页面会话中间件在前
func Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"username": middleware.Username(c)})
}
