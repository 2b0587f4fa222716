package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rgabuco/webapp-sodv2201-final/pkg/redis"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/response"
)

// RateLimit 按 客户端IP + 路由模板 计数的滑动窗口限流
// rdb 为 nil 或 Redis 出错时放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := "ratelimit:" + c.Request.Method + ":" + c.FullPath() + ":" + c.ClientIP()
		remaining, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		if remaining < 0 {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", retryAfter)
			response.TooManyRequests(c)
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		c.Next()
	}
}
