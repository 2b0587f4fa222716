package service

import (
	"time"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
)

// ── 模型 → 响应 转换 ──

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dto.DateLayout)
}

func toUserResponse(u *model.User, withCourses bool) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		Department:   u.Department,
		Program:      u.Program,
		IsAdmin:      u.IsAdmin,
		ProfilePhoto: u.ProfilePhoto,
		StudentID:    u.StudentID,
		CourseCount:  u.CourseCount,
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
	}
	if withCourses {
		resp.Courses = toEnrolledCourses(u.Courses)
	}
	return resp
}

func toEnrolledCourse(e *model.Enrollment) dto.EnrolledCourseResponse {
	return dto.EnrolledCourseResponse{
		CourseID:      e.CourseID,
		Code:          e.Code,
		Name:          e.Name,
		Description:   e.Description,
		Credits:       e.Credits,
		Prerequisites: e.Prerequisites,
		Term:          e.Term,
		StartDate:     formatDate(e.StartDate),
		EndDate:       formatDate(e.EndDate),
		Time:          e.Time,
		Days:          e.Days,
		Campus:        e.Campus,
		DeliveryMode:  e.DeliveryMode,
		EnrolledAt:    e.CreatedAt.Format(time.RFC3339),
	}
}

func toEnrolledCourses(list []model.Enrollment) []dto.EnrolledCourseResponse {
	result := make([]dto.EnrolledCourseResponse, 0, len(list))
	for i := range list {
		result = append(result, toEnrolledCourse(&list[i]))
	}
	return result
}

func toUserCoursesResponse(list []model.Enrollment) *dto.UserCoursesResponse {
	return &dto.UserCoursesResponse{
		Count:   len(list),
		Courses: toEnrolledCourses(list),
	}
}

func toCourseResponse(c *model.CourseOffering) dto.CourseResponse {
	return dto.CourseResponse{
		ID:             c.ID,
		ProgramID:      c.ProgramID,
		Code:           c.Code,
		Name:           c.Name,
		Description:    c.Description,
		Credits:        c.Credits,
		Prerequisites:  c.Prerequisites,
		Term:           c.Term,
		StartDate:      formatDate(c.StartDate),
		EndDate:        formatDate(c.EndDate),
		Time:           c.Time,
		Days:           c.Days,
		Campus:         c.Campus,
		DeliveryMode:   c.DeliveryMode,
		SeatsAvailable: c.SeatsAvailable,
		ClassSize:      c.ClassSize,
		Version:        c.Version,
	}
}

func toCourseResponses(list []model.CourseOffering) []dto.CourseResponse {
	result := make([]dto.CourseResponse, 0, len(list))
	for i := range list {
		result = append(result, toCourseResponse(&list[i]))
	}
	return result
}

func toProgramResponse(p *model.Program, withCourses bool) *dto.ProgramResponse {
	resp := &dto.ProgramResponse{
		ID:          p.ID,
		Name:        p.Name,
		Code:        p.Code,
		Description: p.Description,
		Term:        p.Term,
		StartDate:   formatDate(p.StartDate),
		EndDate:     formatDate(p.EndDate),
		Fees:        p.Fees,
		Category:    p.Category,
		CourseCount: len(p.Courses),
	}
	if withCourses {
		resp.Courses = toCourseResponses(p.Courses)
	}
	return resp
}

func toEventResponse(e *model.Event) dto.EventResponse {
	resp := dto.EventResponse{
		ID:        e.ID,
		Name:      e.Name,
		EventDate: e.EventDate.Format(time.RFC3339),
	}
	if e.CreatedBy != nil {
		resp.CreatedBy = *e.CreatedBy
	}
	return resp
}

func toEventResponses(list []model.Event) []dto.EventResponse {
	result := make([]dto.EventResponse, 0, len(list))
	for i := range list {
		result = append(result, toEventResponse(&list[i]))
	}
	return result
}

func toSupportMessageResponse(m *model.SupportMessage) *dto.SupportMessageResponse {
	return &dto.SupportMessageResponse{
		ID:        m.ID,
		Username:  m.Username,
		Email:     m.Email,
		Message:   m.Message,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}
