package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RateLimit 返回一个 Gin 中间件，用于基于客户端 IP 地址进行速率限制。
// redisClient: 用于存储计数器的 Redis 客户端实例，必须提供。
// keyPrefix: 计数键前缀，与其他 Redis 数据共用命名空间。
// maxRequests: 在指定时间窗口内允许的最大请求数。
// window: 速率限制的时间窗口。
func RateLimit(redisClient *redis.Client, keyPrefix string, maxRequests int, window time.Duration) gin.HandlerFunc {
	if redisClient == nil {
		panic("Redis client cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive for RateLimit middleware")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimit middleware")
	}

	return func(c *gin.Context) {
		// 注意：在反向代理后面需要配置 gin 的 TrustedProxies 才能拿到真实 IP
		key := keyPrefix + "ratelimit:" + c.ClientIP()
		ctx := c.Request.Context()

		// INCR 和 EXPIRE 放在同一个 Pipeline 中
		pipe := redisClient.Pipeline()
		incrCmd := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			// 限流存储不可用时放行，避免 Redis 故障拖垮整个站点
			logrus.WithError(err).Error("RateLimit: Redis Pipeline failed")
			c.Next()
			return
		}

		count, err := incrCmd.Result()
		if err != nil {
			logrus.WithError(err).Error("RateLimit: Failed to get INCR result after successful Exec")
			c.Next()
			return
		}

		if count > int64(maxRequests) {
			logrus.WithField("client_ip", c.ClientIP()).Warn("RateLimit: Too many requests")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}
