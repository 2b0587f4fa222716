package dto

// ── 用户模块请求 ──

// SignupRequest 学生注册请求
type SignupRequest struct {
	Username   string `json:"username"   binding:"required,min=4,max=50"`
	Password   string `json:"password"   binding:"required,min=8,max=72"`
	Email      string `json:"email"      binding:"required,email,max=255"`
	FirstName  string `json:"first_name" binding:"required,max=100"`
	LastName   string `json:"last_name"  binding:"required,max=100"`
	Phone      string `json:"phone"      binding:"omitempty,max=30"`
	Department string `json:"department" binding:"omitempty,max=100"`
	Program    string `json:"program"    binding:"omitempty,max=100"`
}

// UpdateUserRequest 更新用户资料（仅更新非 nil 字段）
type UpdateUserRequest struct {
	Username   *string `json:"username"   binding:"omitempty,min=4,max=50"`
	Password   *string `json:"password"   binding:"omitempty,min=8,max=72"`
	Email      *string `json:"email"      binding:"omitempty,email,max=255"`
	FirstName  *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName   *string `json:"last_name"  binding:"omitempty,min=1,max=100"`
	Phone      *string `json:"phone"      binding:"omitempty,max=30"`
	Department *string `json:"department" binding:"omitempty,max=100"`
	Program    *string `json:"program"    binding:"omitempty,max=100"`
	IsAdmin    *bool   `json:"is_admin"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
}

// ── 用户模块响应 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID           string                   `json:"id"`
	Username     string                   `json:"username"`
	Email        string                   `json:"email"`
	FirstName    string                   `json:"first_name"`
	LastName     string                   `json:"last_name"`
	Phone        string                   `json:"phone"`
	Department   string                   `json:"department"`
	Program      string                   `json:"program"`
	IsAdmin      bool                     `json:"is_admin"`
	ProfilePhoto string                   `json:"profile_photo"`
	StudentID    int64                    `json:"student_id"`
	CourseCount  int                      `json:"course_count"`
	Courses      []EnrolledCourseResponse `json:"courses,omitempty"`
	CreatedAt    string                   `json:"created_at"`
}

// ProfilePhotoResponse 头像上传响应
type ProfilePhotoResponse struct {
	ProfilePhoto string `json:"profile_photo"`
}
