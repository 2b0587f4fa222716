package dto

// ── 项目模块请求 ──

// CreateProgramRequest 创建项目请求，可同时携带课程
type CreateProgramRequest struct {
	Name        string                `json:"name"        binding:"required,min=3,max=100"`
	Code        string                `json:"code"        binding:"required,min=3,max=11"`
	Description string                `json:"description" binding:"omitempty,max=2000"`
	Term        string                `json:"term"        binding:"required,term"`
	StartDate   string                `json:"start_date"  binding:"required,datetime=2006-01-02"`
	EndDate     string                `json:"end_date"    binding:"required,datetime=2006-01-02"`
	Fees        string                `json:"fees"        binding:"omitempty,max=100"`
	Category    string                `json:"category"    binding:"required,program_category"`
	Courses     []CreateCourseRequest `json:"courses"     binding:"omitempty,dive"`
}

// UpdateProgramRequest 更新项目（仅更新非 nil 字段）
type UpdateProgramRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=3,max=100"`
	Code        *string `json:"code"        binding:"omitempty,min=3,max=11"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Term        *string `json:"term"        binding:"omitempty,term"`
	StartDate   *string `json:"start_date"  binding:"omitempty,datetime=2006-01-02"`
	EndDate     *string `json:"end_date"    binding:"omitempty,datetime=2006-01-02"`
	Fees        *string `json:"fees"        binding:"omitempty,max=100"`
	Category    *string `json:"category"    binding:"omitempty,program_category"`
}

// ── 项目模块响应 ──

// ProgramResponse 项目信息
type ProgramResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Code        string           `json:"code"`
	Description string           `json:"description"`
	Term        string           `json:"term"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
	Fees        string           `json:"fees"`
	Category    string           `json:"category"`
	CourseCount int              `json:"course_count"`
	Courses     []CourseResponse `json:"courses,omitempty"`
}
