package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	httpHandler "costume-swap/internal/handler/http"
	"costume-swap/internal/middleware"
	"costume-swap/internal/repository"
	"costume-swap/internal/service"
)

// RouterDeps 是构建路由所需的组件
type RouterDeps struct {
	Config          *Config
	Log             *logrus.Logger
	AuthService     *service.AuthService
	Generator       httpHandler.Generator
	FeedbackService *service.FeedbackService
	HistoryService  *service.HistoryService
	ResultStore     repository.ResultStore
	RedisClient     *redis.Client // 可选，为 nil 时不限流
}

// NewRouter 创建 Gin Engine 并注册所有路由
func NewRouter(d RouterDeps) (*gin.Engine, error) {
	cfg := d.Config
	maxUploadBytes := cfg.MaxUploadMB << 20

	router := gin.New()
	router.MaxMultipartMemory = maxUploadBytes
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(d.Log))
	router.Use(CORSMiddleware(cfg.CORSAllowedOrigin))
	if d.RedisClient != nil {
		router.Use(middleware.RateLimit(d.RedisClient, cfg.Redis.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow))
	}

	tmpl, err := httpHandler.LoadTemplates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	authHandler := httpHandler.NewAuthHandler(d.AuthService, cfg.IsProduction())
	generateHandler := httpHandler.NewGenerateHandler(d.Generator, maxUploadBytes)
	resultHandler := httpHandler.NewResultHandler(d.ResultStore)
	feedbackHandler := httpHandler.NewFeedbackHandler(d.FeedbackService)
	historyHandler := httpHandler.NewHistoryHandler(d.HistoryService)

	// --- 页面 ---
	router.GET("/", middleware.RequireSession(d.AuthService, middleware.ModePage), httpHandler.Index)
	router.GET("/login", authHandler.LoginPage)
	router.POST("/login", authHandler.Login)
	router.GET("/register", authHandler.RegisterPage)
	router.POST("/register", authHandler.Register)
	router.GET("/logout", middleware.LoadSession(d.AuthService), authHandler.Logout)

	// --- 结果图片 ---
	router.GET(service.ResultURLPrefix+":filename", resultHandler.Serve)

	// --- 接口 ---
	api := router.Group("/").Use(middleware.RequireSession(d.AuthService, middleware.ModeAPI))
	{
		api.POST("/generate", generateHandler.Generate)
		api.POST("/feedback", feedbackHandler.Submit)
		api.GET("/get_feedbacks", feedbackHandler.List)
		api.GET("/history", historyHandler.List)
	}

	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	return router, nil
}

// CORSMiddleware 允许配置的前端来源携带 Cookie 访问
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		switch {
		case errorMessage != "":
			entry.Error(errorMessage)
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
