package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"costume-swap/internal/middleware"
	"costume-swap/internal/service"
)

// AuthHandler 封装了登录、注册和退出的 HTTP 处理逻辑
type AuthHandler struct {
	authService  *service.AuthService
	secureCookie bool
}

// NewAuthHandler 创建 AuthHandler 实例。secureCookie 为 true 时 Cookie 仅通过 HTTPS 发送。
func NewAuthHandler(authService *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

// LoginPage 显示登录表单
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// Login 处理登录表单提交
func (h *AuthHandler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	token, err := h.authService.Login(c.Request.Context(), username, password)
	if err != nil {
		logCtx := logrus.WithField("username", username)
		if errors.Is(err, service.ErrInvalidCredentials) {
			logCtx.Warn("Handler.Login: Login failed")
			c.HTML(http.StatusOK, "login.html", gin.H{"error": service.ErrInvalidCredentials.Error(), "username": username})
			return
		}
		logCtx.WithError(err).Error("Handler.Login: Internal error during login")
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"error": "登录失败，请稍后重试", "username": username})
		return
	}

	middleware.SetSessionCookie(c, token, h.authService.SessionTTL(), h.secureCookie)
	c.Redirect(http.StatusFound, "/")
}

// RegisterPage 显示注册表单
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{})
}

// Register 处理注册表单提交，成功后直接登录
func (h *AuthHandler) Register(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	confirm := c.PostForm("confirm_password")

	user, err := h.authService.Register(c.Request.Context(), username, password, confirm)
	if err != nil {
		logCtx := logrus.WithField("username", username)
		switch {
		case errors.Is(err, service.ErrPasswordMismatch),
			errors.Is(err, service.ErrDuplicateUser),
			errors.Is(err, service.ErrInvalidInput):
			logCtx.WithError(err).Warn("Handler.Register: Registration rejected")
			c.HTML(http.StatusOK, "register.html", gin.H{"error": err.Error(), "username": username})
		default:
			logCtx.WithError(err).Error("Handler.Register: Internal error during registration")
			c.HTML(http.StatusInternalServerError, "register.html", gin.H{"error": "注册失败，请稍后重试", "username": username})
		}
		return
	}

	token, err := h.authService.IssueToken(user.Username)
	if err != nil {
		logrus.WithError(err).WithField("username", user.Username).Error("Handler.Register: Failed to issue session")
		c.Redirect(http.StatusFound, "/login")
		return
	}
	logrus.WithField("username", user.Username).Info("Handler.Register: User registered successfully")
	middleware.SetSessionCookie(c, token, h.authService.SessionTTL(), h.secureCookie)
	c.Redirect(http.StatusFound, "/")
}

// Logout 清除会话并回到登录页。未登录时同样成功。
// 需要 middleware.LoadSession 在前，由它解析 Cookie 中的会话。
func (h *AuthHandler) Logout(c *gin.Context) {
	if claims := middleware.Claims(c); claims != nil {
		if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
			logrus.WithError(err).WithField("username", claims.Username).Warn("Handler.Logout: Failed to revoke session")
		}
	}
	middleware.ClearSessionCookie(c, h.secureCookie)
	c.Redirect(http.StatusFound, "/login")
}
