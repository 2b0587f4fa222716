package dto

// ── 课程模块请求 ──

// ProgramCodeQuery 限定所属项目的查询参数
type ProgramCodeQuery struct {
	ProgramCode string `form:"programCode" binding:"required,min=3,max=11"`
}

// CourseListQuery 课程列表查询参数，programCode 可重复
type CourseListQuery struct {
	ProgramCodes []string `form:"programCode" binding:"omitempty,dive,min=3,max=11"`
}

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Code           string `json:"code"            binding:"required,min=3,max=11"`
	Name           string `json:"name"            binding:"required,min=3,max=100"`
	Description    string `json:"description"     binding:"required,min=10,max=1000"`
	Credits        int    `json:"credits"         binding:"required,min=1,max=10"`
	Prerequisites  string `json:"prerequisites"   binding:"omitempty,max=100"`
	Term           string `json:"term"            binding:"required,term"`
	StartDate      string `json:"start_date"      binding:"required,datetime=2006-01-02"`
	EndDate        string `json:"end_date"        binding:"required,datetime=2006-01-02"`
	Time           string `json:"time"            binding:"omitempty,max=50"`
	Days           string `json:"days"            binding:"omitempty,max=50"`
	Campus         string `json:"campus"          binding:"omitempty,max=100"`
	DeliveryMode   string `json:"delivery_mode"   binding:"required,delivery_mode"`
	SeatsAvailable int    `json:"seats_available" binding:"min=0"`
	ClassSize      int    `json:"class_size"      binding:"required,min=10,max=50"`
}

// UpdateCourseRequest 管理员更新课程（仅更新非 nil 字段）
// Version 非空时与当前版本比对，不一致返回冲突
type UpdateCourseRequest struct {
	Code           *string `json:"code"            binding:"omitempty,min=3,max=11"`
	Name           *string `json:"name"            binding:"omitempty,min=3,max=100"`
	Description    *string `json:"description"     binding:"omitempty,min=10,max=1000"`
	Credits        *int    `json:"credits"         binding:"omitempty,min=1,max=10"`
	Prerequisites  *string `json:"prerequisites"   binding:"omitempty,max=100"`
	Term           *string `json:"term"            binding:"omitempty,term"`
	StartDate      *string `json:"start_date"      binding:"omitempty,datetime=2006-01-02"`
	EndDate        *string `json:"end_date"        binding:"omitempty,datetime=2006-01-02"`
	Time           *string `json:"time"            binding:"omitempty,max=50"`
	Days           *string `json:"days"            binding:"omitempty,max=50"`
	Campus         *string `json:"campus"          binding:"omitempty,max=100"`
	DeliveryMode   *string `json:"delivery_mode"   binding:"omitempty,delivery_mode"`
	SeatsAvailable *int    `json:"seats_available" binding:"omitempty,min=0"`
	ClassSize      *int    `json:"class_size"      binding:"omitempty,min=10,max=50"`
	Version        *int    `json:"version"         binding:"omitempty,min=1"`
}

// ── 课程模块响应 ──

// CourseResponse 课程信息
type CourseResponse struct {
	ID             string `json:"id"`
	ProgramID      string `json:"program_id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Credits        int    `json:"credits"`
	Prerequisites  string `json:"prerequisites"`
	Term           string `json:"term"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Time           string `json:"time"`
	Days           string `json:"days"`
	Campus         string `json:"campus"`
	DeliveryMode   string `json:"delivery_mode"`
	SeatsAvailable int    `json:"seats_available"`
	ClassSize      int    `json:"class_size"`
	Version        int    `json:"version"`
}
