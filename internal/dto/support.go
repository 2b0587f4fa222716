package dto

// ── 联系支持模块请求 ──

// CreateSupportMessageRequest 提交支持留言
type CreateSupportMessageRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email"    binding:"required,email,max=255"`
	Message  string `json:"message"  binding:"required,min=10,max=1000"`
}

// UpdateSupportMessageRequest 标记已读/未读
type UpdateSupportMessageRequest struct {
	IsRead *bool `json:"is_read" binding:"required"`
}

// SupportMessageListRequest 留言列表查询参数
type SupportMessageListRequest struct {
	PaginationRequest
	Unread bool `form:"unread"`
}

// ── 联系支持模块响应 ──

// SupportMessageResponse 留言信息
type SupportMessageResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}
