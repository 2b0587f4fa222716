package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID 请求追踪 ID 的上下文键
const ContextKeyRequestID = "request_id"

const requestIDMaxLen = 64

// RequestID 请求追踪 ID 中间件
// 沿用客户端传入的 X-Request-ID，超长或含非法字符时重新生成
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}

		c.Set(ContextKeyRequestID, rid)
		c.Header("X-Request-ID", rid)

		c.Next()
	}
}

// validRequestID 仅允许字母、数字、- 与 _，避免日志注入
func validRequestID(s string) bool {
	if s == "" || len(s) > requestIDMaxLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
