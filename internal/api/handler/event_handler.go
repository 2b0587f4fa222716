package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/service"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/response"
)

// EventHandler 校园活动 HTTP 处理器
type EventHandler struct {
	eventSvc service.EventService
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(eventSvc service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// ListEvents 活动列表
// GET /api/v1/events?upcoming=true
func (h *EventHandler) ListEvents(c *gin.Context) {
	var q dto.EventListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	events, err := h.eventSvc.List(c.Request.Context(), q.Upcoming)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKList(c, events)
}

// GetEvent 活动详情
// GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := mustParam(c, "id", "活动ID不能为空")
	if !ok {
		return
	}

	event, err := h.eventSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// CreateEvent 创建活动
// POST /api/v1/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Created(c, event)
}

// UpdateEvent 更新活动
// PATCH /api/v1/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, ok := mustParam(c, "id", "活动ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	event, err := h.eventSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// DeleteEvent 删除活动
// DELETE /api/v1/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := mustParam(c, "id", "活动ID不能为空")
	if !ok {
		return
	}

	if err := h.eventSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *EventHandler) handleEventError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	if errors.Is(err, service.ErrEventNotFound) {
		response.NotFound(c, 24001, "活动不存在")
		return
	}
	response.InternalError(c)
}
