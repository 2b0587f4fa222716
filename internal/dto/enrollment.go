package dto

// ── 选课模块请求 ──

// EnrollmentQuery 选课/退课查询参数
type EnrollmentQuery struct {
	CourseCode string `form:"courseCode" binding:"required,min=3,max=11"`
}

// ── 选课模块响应 ──

// EnrolledCourseResponse 已选课程快照
type EnrolledCourseResponse struct {
	CourseID      string `json:"course_id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Credits       int    `json:"credits"`
	Prerequisites string `json:"prerequisites"`
	Term          string `json:"term"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Time          string `json:"time"`
	Days          string `json:"days"`
	Campus        string `json:"campus"`
	DeliveryMode  string `json:"delivery_mode"`
	EnrolledAt    string `json:"enrolled_at"`
}

// UserCoursesResponse 用户已选课程列表
type UserCoursesResponse struct {
	Count   int                      `json:"count"`
	Courses []EnrolledCourseResponse `json:"courses"`
}
