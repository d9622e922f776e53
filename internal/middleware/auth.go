package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"costume-swap/internal/service"
)

// SessionCookieName 是保存会话令牌的 Cookie 名
const SessionCookieName = "session"

// gin 上下文中的键
const (
	ContextUsernameKey = "username"
	ContextClaimsKey   = "session_claims"
)

// Mode 决定未登录请求的处理方式
type Mode int

const (
	// ModePage 页面请求，重定向到登录页
	ModePage Mode = iota
	// ModeAPI 接口请求，返回 401 JSON
	ModeAPI
)

// SessionParser 解析并校验会话令牌
type SessionParser interface {
	ParseToken(ctx context.Context, token string) (*service.SessionClaims, error)
}

// RequireSession 返回一个 Gin 中间件，要求请求携带有效会话。
func RequireSession(sessions SessionParser, mode Mode) gin.HandlerFunc {
	if sessions == nil {
		panic("session parser cannot be nil for RequireSession middleware")
	}

	return func(c *gin.Context) {
		token, _ := c.Cookie(SessionCookieName)
		claims, err := sessions.ParseToken(c.Request.Context(), token)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"path":       c.Request.URL.Path,
				"has_cookie": token != "",
			}).Debug("Session middleware: request is not authenticated")

			if mode == ModePage {
				c.Redirect(http.StatusFound, "/login")
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthenticated.Error()})
			}
			c.Abort()
			return
		}

		c.Set(ContextUsernameKey, claims.Username)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// LoadSession 在会话有效时把用户信息写入上下文，无效时也继续处理请求。
// 用于登录与否都要成功的路由，如退出登录。
func LoadSession(sessions SessionParser) gin.HandlerFunc {
	if sessions == nil {
		panic("session parser cannot be nil for LoadSession middleware")
	}

	return func(c *gin.Context) {
		if token, err := c.Cookie(SessionCookieName); err == nil {
			if claims, err := sessions.ParseToken(c.Request.Context(), token); err == nil {
				c.Set(ContextUsernameKey, claims.Username)
				c.Set(ContextClaimsKey, claims)
			}
		}
		c.Next()
	}
}

// Claims 返回会话中间件写入的令牌声明，未登录时为 nil
func Claims(c *gin.Context) *service.SessionClaims {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.SessionClaims)
	return claims
}

// Username 返回会话中的用户名，未登录时为空
func Username(c *gin.Context) string {
	return c.GetString(ContextUsernameKey)
}

// SetSessionCookie 写入会话 Cookie
func SetSessionCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearSessionCookie 删除会话 Cookie
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", secure, true)
}
