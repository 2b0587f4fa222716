package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/service"
	pkgerrors "github.com/rgabuco/webapp-sodv2201-final/pkg/errors"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/response"
)

// MustGetCaller 从 Gin 上下文中构造调用方身份。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return service.Caller{}, false
	}
	userID, ok := v.(string)
	if !ok || userID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Caller{}, false
	}
	return service.Caller{UserID: userID, IsAdmin: c.GetBool("is_admin")}, true
}

// GetTokenInfo 读取当前 Token 的 jti 与过期时间，缺失时返回零值
func GetTokenInfo(c *gin.Context) (string, time.Time) {
	return c.GetString("token_id"), c.GetTime("token_exp")
}

// mustParam 读取路径参数，为空时写入 400
func mustParam(c *gin.Context, name, msg string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		response.BadRequest(c, 10001, msg)
		return "", false
	}
	return v, true
}

// bindFailed 写入参数校验失败响应，请求体超限时返回 413
func bindFailed(c *gin.Context, err error) {
	if isBodyTooLarge(err) {
		response.PayloadTooLarge(c, 10005, "请求体过大")
		return
	}
	response.ValidationFailed(c, dto.FormatValidationErrors(err))
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// handleCommonError 处理跨模块的通用错误，已写入响应时返回 true
func handleCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权操作该资源")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, context.DeadlineExceeded):
		response.Timeout(c)
	default:
		return false
	}
	return true
}
