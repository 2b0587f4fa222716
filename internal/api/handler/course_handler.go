package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/service"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
// 写操作与详情均以 programCode 查询参数限定所属项目
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// ListCourses 课程列表，programCode 可重复
// GET /api/v1/courses?programCode=A&programCode=B
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var q dto.CourseListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	courses, err := h.courseSvc.List(c.Request.Context(), q.ProgramCodes)
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	response.OKList(c, courses)
}

// GetCourse 课程详情
// GET /api/v1/courses/:id?programCode=P
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, programCode, ok := h.bindScope(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Get(c.Request.Context(), id, programCode)
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	response.OK(c, course)
}

// CreateCourse 在项目下新增课程，返回更新后的项目
// POST /api/v1/courses?programCode=P
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var q dto.ProgramCodeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	program, err := h.courseSvc.Create(c.Request.Context(), q.ProgramCode, &req)
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	response.Created(c, program)
}

// UpdateCourse 管理员修改课程（含可用座位）
// PATCH /api/v1/courses/:id?programCode=P
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, programCode, ok := h.bindScope(c)
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	program, err := h.courseSvc.Update(c.Request.Context(), id, programCode, &req)
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	response.OK(c, program)
}

// DeleteCourse 删除课程
// DELETE /api/v1/courses/:id?programCode=P
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, programCode, ok := h.bindScope(c)
	if !ok {
		return
	}

	program, err := h.courseSvc.Delete(c.Request.Context(), id, programCode)
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	response.OK(c, program)
}

func (h *CourseHandler) bindScope(c *gin.Context) (string, string, bool) {
	id, ok := mustParam(c, "id", "课程ID不能为空")
	if !ok {
		return "", "", false
	}
	var q dto.ProgramCodeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return "", "", false
	}
	return id, q.ProgramCode, true
}
