package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
)

// ── 目录查询错误 ──

var (
	ErrProgramNotFound = errors.New("项目不存在")
	ErrCourseNotFound  = errors.New("课程不存在")
)

// catalog 课程目录只读访问
type catalog struct {
	repo *repository.Repository
}

func newCatalog(repo *repository.Repository) *catalog {
	return &catalog{repo: repo}
}

// FindProgramByCourseCode 返回包含该课程代码的项目
// 课程代码全目录唯一，结果至多一个
func (c *catalog) FindProgramByCourseCode(ctx context.Context, code string) (*model.Program, error) {
	course, err := c.repo.Course.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	program, err := c.repo.Program.GetByID(ctx, course.ProgramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}

// FindProgramByCode 按项目代码查找
func (c *catalog) FindProgramByCode(ctx context.Context, code string) (*model.Program, error) {
	program, err := c.repo.Program.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}

// FindCourseInProgram 在项目内按课程代码查找，多个命中时取第一个
func FindCourseInProgram(program *model.Program, code string) (*model.CourseOffering, error) {
	for i := range program.Courses {
		if program.Courses[i].Code == code {
			return &program.Courses[i], nil
		}
	}
	return nil, ErrCourseNotFound
}

// ResolveCourse 按课程 ID 定位课程，并要求其属于 programCode 指定的项目
func (c *catalog) ResolveCourse(ctx context.Context, courseID, programCode string) (*model.Program, *model.CourseOffering, error) {
	program, err := c.FindProgramByCode(ctx, programCode)
	if err != nil {
		return nil, nil, err
	}
	for i := range program.Courses {
		if program.Courses[i].ID == courseID {
			return program, &program.Courses[i], nil
		}
	}
	return nil, nil, ErrCourseNotFound
}
