package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
)

// ProgramRepository 学术项目数据访问接口
type ProgramRepository interface {
	// Create 创建项目，Courses 非空时一并写入
	Create(ctx context.Context, program *model.Program) error
	GetByID(ctx context.Context, id string) (*model.Program, error)
	GetByCode(ctx context.Context, code string) (*model.Program, error)
	GetByName(ctx context.Context, name string) (*model.Program, error)
	List(ctx context.Context) ([]model.Program, error)
	ListByCodes(ctx context.Context, codes []string) ([]model.Program, error)
	Update(ctx context.Context, program *model.Program) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type programRepo struct {
	db *gorm.DB
}

// NewProgramRepo 创建 ProgramRepository 实例
func NewProgramRepo(db *gorm.DB) ProgramRepository {
	return &programRepo{db: db}
}

func preloadCourses(db *gorm.DB) *gorm.DB {
	return db.Preload("Courses", func(db *gorm.DB) *gorm.DB {
		return db.Order("code ASC")
	})
}

func (r *programRepo) Create(ctx context.Context, program *model.Program) error {
	return r.db.WithContext(ctx).Create(program).Error
}

func (r *programRepo) GetByID(ctx context.Context, id string) (*model.Program, error) {
	var program model.Program
	err := preloadCourses(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&program).Error
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *programRepo) GetByCode(ctx context.Context, code string) (*model.Program, error) {
	var program model.Program
	err := preloadCourses(r.db.WithContext(ctx)).
		Where("code = ?", code).
		First(&program).Error
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *programRepo) GetByName(ctx context.Context, name string) (*model.Program, error) {
	var program model.Program
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&program).Error
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *programRepo) List(ctx context.Context) ([]model.Program, error) {
	var programs []model.Program
	err := preloadCourses(r.db.WithContext(ctx)).
		Order("code ASC").
		Find(&programs).Error
	return programs, err
}

func (r *programRepo) ListByCodes(ctx context.Context, codes []string) ([]model.Program, error) {
	var programs []model.Program
	err := preloadCourses(r.db.WithContext(ctx)).
		Where("code IN ?", codes).
		Order("code ASC").
		Find(&programs).Error
	return programs, err
}

// Update 只更新项目自身字段，课程通过 CourseRepository 维护
func (r *programRepo) Update(ctx context.Context, program *model.Program) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(program).Error
}

func (r *programRepo) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	// sqlite 默认不启用外键级联，显式删除课程
	if err := db.Where("program_id = ?", id).Delete(&model.CourseOffering{}).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&model.Program{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *programRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Program{}).Count(&n).Error
	return n, err
}
