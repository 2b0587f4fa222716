package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rgabuco/webapp-sodv2201-final/pkg/jwt"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/redis"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/response"
)

// 上下文键，Handler 通过 context_helper 读取
const (
	ContextKeyUserID    = "user_id"
	ContextKeyIsAdmin   = "is_admin"
	ContextKeyTokenID   = "token_id"
	ContextKeyTokenExp  = "token_exp"
	ContextKeyUserEmail = "email"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
// rdb 非 nil 时检查登出黑名单；Redis 出错时降级放行
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if rdb != nil && claims.ID != "" {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Token 已注销")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyIsAdmin, claims.IsAdmin)
		c.Set(ContextKeyUserEmail, claims.Email)
		c.Set(ContextKeyTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ContextKeyTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// AdminOnly 管理员权限中间件，须挂在 JWTAuth 之后
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ContextKeyUserID); !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		if isAdmin, _ := c.Get(ContextKeyIsAdmin); isAdmin != true {
			response.Forbidden(c, 10003, "需要管理员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}
