package dto

// ── 仪表盘响应 ──

// DashboardResponse 仪表盘数据，学生与管理员填充不同字段
type DashboardResponse struct {
	Role           string                   `json:"role"`
	Status         string                   `json:"status,omitempty"`
	Courses        []EnrolledCourseResponse `json:"courses,omitempty"`
	Stats          *DashboardStats          `json:"stats,omitempty"`
	Students       []StudentEnrollmentRow   `json:"students,omitempty"`
	EventsThisWeek []EventResponse          `json:"events_this_week"`
}

// DashboardStats 管理员统计
type DashboardStats struct {
	TotalStudents int64 `json:"total_students"`
	TotalPrograms int64 `json:"total_programs"`
	TotalCourses  int64 `json:"total_courses"`
	EnrolledSeats int64 `json:"enrolled_seats"`
}

// StudentEnrollmentRow 学生选课概览行
type StudentEnrollmentRow struct {
	ID           string `json:"id"`
	StudentID    int64  `json:"student_id"`
	Name         string `json:"name"`
	Program      string `json:"program"`
	Department   string `json:"department"`
	CoursesCount int    `json:"courses_count"`
}
