package dto

import "time"

// ── 活动模块请求 ──

// CreateEventRequest 创建活动
type CreateEventRequest struct {
	Name      string    `json:"name"       binding:"required,min=3,max=200"`
	EventDate time.Time `json:"event_date" binding:"required"`
}

// UpdateEventRequest 更新活动（仅更新非 nil 字段）
type UpdateEventRequest struct {
	Name      *string    `json:"name"       binding:"omitempty,min=3,max=200"`
	EventDate *time.Time `json:"event_date"`
}

// EventListQuery 活动列表查询参数
type EventListQuery struct {
	Upcoming bool `form:"upcoming"`
}

// ── 活动模块响应 ──

// EventResponse 活动信息
type EventResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	EventDate string `json:"event_date"`
	CreatedBy string `json:"created_by,omitempty"`
}
