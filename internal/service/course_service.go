package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
	pkgerrors "github.com/rgabuco/webapp-sodv2201-final/pkg/errors"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseCodeExists     = errors.New("课程代码已存在")
	ErrInvalidSeatCount     = errors.New("可用座位必须在 0 与班级容量之间")
	ErrCourseHasEnrollments = errors.New("课程仍有学生选课，无法删除")
	ErrCourseCodeLocked     = errors.New("课程仍有学生选课，无法修改课程代码")
)

// CourseService 课程业务接口
// 除 List 外均以 programCode 限定课程所属项目
type CourseService interface {
	// List programCodes 为空时返回全部课程；非空时全部代码都不存在返回 ErrProgramNotFound
	List(ctx context.Context, programCodes []string) ([]dto.CourseResponse, error)
	Get(ctx context.Context, courseID, programCode string) (*dto.CourseResponse, error)
	Create(ctx context.Context, programCode string, req *dto.CreateCourseRequest) (*dto.ProgramResponse, error)
	// Update 管理员直接修改课程（含座位），每次写入都重新校验 0 <= seats <= class_size
	Update(ctx context.Context, courseID, programCode string, req *dto.UpdateCourseRequest) (*dto.ProgramResponse, error)
	Delete(ctx context.Context, courseID, programCode string) (*dto.ProgramResponse, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

// ────────────────────── List / Get ──────────────────────

func (s *courseService) List(ctx context.Context, programCodes []string) ([]dto.CourseResponse, error) {
	var programIDs []string
	if len(programCodes) > 0 {
		programs, err := s.repo.Program.ListByCodes(ctx, programCodes)
		if err != nil {
			s.logger.Error("按代码查询项目失败", zap.Strings("codes", programCodes), zap.Error(err))
			return nil, err
		}
		if len(programs) == 0 {
			return nil, ErrProgramNotFound
		}
		for _, p := range programs {
			programIDs = append(programIDs, p.ID)
		}
	}

	courses, err := s.repo.Course.List(ctx, programIDs)
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}
	return toCourseResponses(courses), nil
}

func (s *courseService) Get(ctx context.Context, courseID, programCode string) (*dto.CourseResponse, error) {
	_, course, err := newCatalog(s.repo).ResolveCourse(ctx, courseID, programCode)
	if err != nil {
		return nil, s.catalogError(err, courseID)
	}
	resp := toCourseResponse(course)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, programCode string, req *dto.CreateCourseRequest) (*dto.ProgramResponse, error) {
	cat := newCatalog(s.repo)
	program, err := cat.FindProgramByCode(ctx, programCode)
	if err != nil {
		return nil, s.catalogError(err, "")
	}

	course, err := buildCourse(req)
	if err != nil {
		return nil, err
	}
	if err := checkCourseCodeFree(ctx, s.repo, req.Code, ""); err != nil {
		return nil, err
	}
	course.ProgramID = program.ID

	if err := s.repo.Course.Create(ctx, course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCourseCodeExists
		}
		s.logger.Error("创建课程失败", zap.String("code", req.Code), zap.Error(err))
		return nil, err
	}

	return s.reloadProgram(ctx, program.ID)
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, courseID, programCode string, req *dto.UpdateCourseRequest) (*dto.ProgramResponse, error) {
	program, course, err := newCatalog(s.repo).ResolveCourse(ctx, courseID, programCode)
	if err != nil {
		return nil, s.catalogError(err, courseID)
	}

	if req.Version != nil && *req.Version != course.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	if req.Code != nil && *req.Code != course.Code {
		// 选课快照按 code 唯一，已有快照时改名会让旧代码无法再被新课程使用
		n, err := s.repo.Enrollment.CountByCourse(ctx, course.ID)
		if err != nil {
			s.logger.Error("统计课程选课数失败", zap.String("id", courseID), zap.Error(err))
			return nil, err
		}
		if n > 0 {
			return nil, ErrCourseCodeLocked
		}
		if err := checkCourseCodeFree(ctx, s.repo, *req.Code, course.ID); err != nil {
			return nil, err
		}
		course.Code = *req.Code
	}
	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Credits != nil {
		course.Credits = *req.Credits
	}
	if req.Prerequisites != nil {
		course.Prerequisites = *req.Prerequisites
	}
	if req.Term != nil {
		course.Term = *req.Term
	}
	if req.Time != nil {
		course.Time = *req.Time
	}
	if req.Days != nil {
		course.Days = *req.Days
	}
	if req.Campus != nil {
		course.Campus = *req.Campus
	}
	if req.DeliveryMode != nil {
		course.DeliveryMode = *req.DeliveryMode
	}
	if req.SeatsAvailable != nil {
		course.SeatsAvailable = *req.SeatsAvailable
	}
	if req.ClassSize != nil {
		course.ClassSize = *req.ClassSize
	}
	if course.SeatsAvailable < 0 || course.SeatsAvailable > course.ClassSize {
		return nil, ErrInvalidSeatCount
	}

	start, end := formatDate(course.StartDate), formatDate(course.EndDate)
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if req.EndDate != nil {
		end = *req.EndDate
	}
	course.StartDate, course.EndDate, err = parseDateRange(start, end)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Course.Update(ctx, course); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			return nil, err
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrCourseCodeExists
		}
		s.logger.Error("更新课程失败", zap.String("id", courseID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("课程已更新",
		zap.String("id", course.ID),
		zap.Int("seats_available", course.SeatsAvailable),
		zap.Int("class_size", course.ClassSize),
		zap.Int("version", course.Version),
	)
	return s.reloadProgram(ctx, program.ID)
}

// ────────────────────── Delete ──────────────────────

func (s *courseService) Delete(ctx context.Context, courseID, programCode string) (*dto.ProgramResponse, error) {
	program, course, err := newCatalog(s.repo).ResolveCourse(ctx, courseID, programCode)
	if err != nil {
		return nil, s.catalogError(err, courseID)
	}

	n, err := s.repo.Enrollment.CountByCourse(ctx, course.ID)
	if err != nil {
		s.logger.Error("统计课程选课数失败", zap.String("id", courseID), zap.Error(err))
		return nil, err
	}
	if n > 0 {
		return nil, ErrCourseHasEnrollments
	}

	if err := s.repo.Course.Delete(ctx, course.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("删除课程失败", zap.String("id", courseID), zap.Error(err))
		return nil, err
	}

	return s.reloadProgram(ctx, program.ID)
}

// ── 内部辅助方法 ──

func (s *courseService) reloadProgram(ctx context.Context, programID string) (*dto.ProgramResponse, error) {
	program, err := s.repo.Program.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return toProgramResponse(program, true), nil
}

func (s *courseService) catalogError(err error, courseID string) error {
	if errors.Is(err, ErrProgramNotFound) || errors.Is(err, ErrCourseNotFound) {
		return err
	}
	s.logger.Error("查询课程目录失败", zap.String("course_id", courseID), zap.Error(err))
	return err
}

// buildCourse 由创建请求构造课程模型
func buildCourse(req *dto.CreateCourseRequest) (*model.CourseOffering, error) {
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if req.SeatsAvailable < 0 || req.SeatsAvailable > req.ClassSize {
		return nil, ErrInvalidSeatCount
	}
	return &model.CourseOffering{
		Code:           req.Code,
		Name:           req.Name,
		Description:    req.Description,
		Credits:        req.Credits,
		Prerequisites:  req.Prerequisites,
		Term:           req.Term,
		StartDate:      start,
		EndDate:        end,
		Time:           req.Time,
		Days:           req.Days,
		Campus:         req.Campus,
		DeliveryMode:   req.DeliveryMode,
		SeatsAvailable: req.SeatsAvailable,
		ClassSize:      req.ClassSize,
		Version:        1,
	}, nil
}

// checkCourseCodeFree 课程代码全目录唯一
func checkCourseCodeFree(ctx context.Context, repo *repository.Repository, code, selfID string) error {
	existing, err := repo.Course.GetByCode(ctx, code)
	if err == nil && existing.ID != selfID {
		return ErrCourseCodeExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}
