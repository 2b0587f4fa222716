package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
)

// ── 项目模块业务错误 ──

var (
	ErrProgramNameExists     = errors.New("项目名称已存在")
	ErrProgramCodeExists     = errors.New("项目代码已存在")
	ErrProgramHasEnrollments = errors.New("项目下仍有学生选课，无法删除")
	ErrInvalidDateRange      = errors.New("开始日期必须早于结束日期")
)

// ImportResult 批量导入/删除结果
type ImportResult struct {
	Created int
	Deleted int
	Skipped []string
}

// ProgramService 项目业务接口
type ProgramService interface {
	List(ctx context.Context) ([]dto.ProgramResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ProgramResponse, error)
	Create(ctx context.Context, req *dto.CreateProgramRequest) (*dto.ProgramResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateProgramRequest) (*dto.ProgramResponse, error)
	Delete(ctx context.Context, id string) error
	// Import 在一个事务内导入多个项目（含课程），任一失败整体回滚
	Import(ctx context.Context, reqs []dto.CreateProgramRequest) (*ImportResult, error)
	// DeleteAll 删除所有无选课的项目，有选课的项目跳过
	DeleteAll(ctx context.Context) (*ImportResult, error)
}

type programService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProgramService 创建 ProgramService 实例
func NewProgramService(repo *repository.Repository, logger *zap.Logger) ProgramService {
	return &programService{repo: repo, logger: logger}
}

// ────────────────────── List / Get ──────────────────────

func (s *programService) List(ctx context.Context) ([]dto.ProgramResponse, error) {
	programs, err := s.repo.Program.List(ctx)
	if err != nil {
		s.logger.Error("列出项目失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.ProgramResponse, 0, len(programs))
	for i := range programs {
		result = append(result, *toProgramResponse(&programs[i], false))
	}
	return result, nil
}

func (s *programService) GetByID(ctx context.Context, id string) (*dto.ProgramResponse, error) {
	program, err := s.repo.Program.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toProgramResponse(program, true), nil
}

// ────────────────────── Create ──────────────────────

func (s *programService) Create(ctx context.Context, req *dto.CreateProgramRequest) (*dto.ProgramResponse, error) {
	program, err := s.buildProgram(ctx, s.repo, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Program.Create(ctx, program); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProgramCodeExists
		}
		s.logger.Error("创建项目失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("项目已创建", zap.String("code", program.Code), zap.Int("courses", len(program.Courses)))
	return toProgramResponse(program, true), nil
}

// buildProgram 校验请求并构造模型（含唯一性检查）
func (s *programService) buildProgram(ctx context.Context, repo *repository.Repository, req *dto.CreateProgramRequest) (*model.Program, error) {
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	if _, err := repo.Program.GetByName(ctx, req.Name); err == nil {
		return nil, ErrProgramNameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := repo.Program.GetByCode(ctx, req.Code); err == nil {
		return nil, ErrProgramCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	program := &model.Program{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Term:        req.Term,
		StartDate:   start,
		EndDate:     end,
		Fees:        req.Fees,
		Category:    req.Category,
	}

	seen := make(map[string]bool, len(req.Courses))
	for i := range req.Courses {
		c := &req.Courses[i]
		if seen[c.Code] {
			return nil, ErrCourseCodeExists
		}
		seen[c.Code] = true

		course, err := buildCourse(c)
		if err != nil {
			return nil, err
		}
		if err := checkCourseCodeFree(ctx, repo, c.Code, ""); err != nil {
			return nil, err
		}
		program.Courses = append(program.Courses, *course)
	}

	return program, nil
}

// ────────────────────── Update ──────────────────────

func (s *programService) Update(ctx context.Context, id string, req *dto.UpdateProgramRequest) (*dto.ProgramResponse, error) {
	program, err := s.repo.Program.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil && *req.Name != program.Name {
		if existing, err := s.repo.Program.GetByName(ctx, *req.Name); err == nil && existing.ID != id {
			return nil, ErrProgramNameExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		program.Name = *req.Name
	}
	if req.Code != nil && *req.Code != program.Code {
		if existing, err := s.repo.Program.GetByCode(ctx, *req.Code); err == nil && existing.ID != id {
			return nil, ErrProgramCodeExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		program.Code = *req.Code
	}
	if req.Description != nil {
		program.Description = *req.Description
	}
	if req.Term != nil {
		program.Term = *req.Term
	}
	if req.Fees != nil {
		program.Fees = *req.Fees
	}
	if req.Category != nil {
		program.Category = *req.Category
	}

	start, end := formatDate(program.StartDate), formatDate(program.EndDate)
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if req.EndDate != nil {
		end = *req.EndDate
	}
	program.StartDate, program.EndDate, err = parseDateRange(start, end)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Program.Update(ctx, program); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProgramCodeExists
		}
		s.logger.Error("更新项目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toProgramResponse(program, true), nil
}

// ────────────────────── Delete ──────────────────────

func (s *programService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Program.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProgramNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", id), zap.Error(err))
		return err
	}

	n, err := s.repo.Enrollment.CountByProgram(ctx, id)
	if err != nil {
		s.logger.Error("统计项目选课数失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if n > 0 {
		return ErrProgramHasEnrollments
	}

	if err := s.repo.Program.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProgramNotFound
		}
		s.logger.Error("删除项目失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Import / DeleteAll ──────────────────────

func (s *programService) Import(ctx context.Context, reqs []dto.CreateProgramRequest) (*ImportResult, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	txRepo := s.repo.WithTx(tx)
	rollback := func() {
		if tx != nil {
			tx.Rollback()
		}
	}

	result := &ImportResult{}
	for i := range reqs {
		program, err := s.buildProgram(ctx, txRepo, &reqs[i])
		if err != nil {
			rollback()
			return nil, err
		}
		if err := txRepo.Program.Create(ctx, program); err != nil {
			rollback()
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrProgramCodeExists
			}
			s.logger.Error("导入项目失败", zap.String("code", reqs[i].Code), zap.Error(err))
			return nil, err
		}
		result.Created++
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}
	return result, nil
}

func (s *programService) DeleteAll(ctx context.Context) (*ImportResult, error) {
	programs, err := s.repo.Program.List(ctx)
	if err != nil {
		s.logger.Error("列出项目失败", zap.Error(err))
		return nil, err
	}

	result := &ImportResult{}
	for _, p := range programs {
		if err := s.Delete(ctx, p.ID); err != nil {
			if errors.Is(err, ErrProgramHasEnrollments) {
				result.Skipped = append(result.Skipped, p.Code)
				continue
			}
			return result, err
		}
		result.Deleted++
	}
	return result, nil
}

// ── 内部辅助方法 ──

func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(dto.DateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	end, err := time.Parse(dto.DateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start, end, nil
}
