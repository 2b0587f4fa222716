package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	pkgerrors "github.com/rgabuco/webapp-sodv2201-final/pkg/errors"
)

// CourseSeatUsage 课程座位占用统计
type CourseSeatUsage struct {
	ID             string
	Code           string
	SeatsAvailable int
	ClassSize      int
	Enrolled       int64
}

// CourseRepository 课程开班数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.CourseOffering) error
	GetByID(ctx context.Context, id string) (*model.CourseOffering, error)
	// GetByCode 按课程代码查找；代码全目录唯一，命中即唯一
	GetByCode(ctx context.Context, code string) (*model.CourseOffering, error)
	// List programIDs 为空时返回全部课程
	List(ctx context.Context, programIDs []string) ([]model.CourseOffering, error)
	// Update 乐观锁更新描述与容量字段，版本不符返回 ErrOptimisticLock
	Update(ctx context.Context, course *model.CourseOffering) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	// DecrementSeat 条件扣减：seats_available > 0 时 -1，否则返回 ErrConditionNotMet
	DecrementSeat(ctx context.Context, id string) error
	// IncrementSeat 条件归还：seats_available < class_size 时 +1；已满额时不变，返回 false
	IncrementSeat(ctx context.Context, id string) (bool, error)
	// ListOverbooked 返回 seats_available + 已选人数 > class_size 的课程
	ListOverbooked(ctx context.Context) ([]CourseSeatUsage, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.CourseOffering) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.CourseOffering, error) {
	var course model.CourseOffering
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByCode(ctx context.Context, code string) (*model.CourseOffering, error) {
	var course model.CourseOffering
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context, programIDs []string) ([]model.CourseOffering, error) {
	var courses []model.CourseOffering
	db := r.db.WithContext(ctx)
	if len(programIDs) > 0 {
		db = db.Where("program_id IN ?", programIDs)
	}
	err := db.Order("code ASC").Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Update(ctx context.Context, course *model.CourseOffering) error {
	result := r.db.WithContext(ctx).
		Model(&model.CourseOffering{}).
		Where("id = ? AND version = ?", course.ID, course.Version).
		Updates(map[string]interface{}{
			"code":            course.Code,
			"name":            course.Name,
			"description":     course.Description,
			"credits":         course.Credits,
			"prerequisites":   course.Prerequisites,
			"term":            course.Term,
			"start_date":      course.StartDate,
			"end_date":        course.EndDate,
			"time":            course.Time,
			"days":            course.Days,
			"campus":          course.Campus,
			"delivery_mode":   course.DeliveryMode,
			"seats_available": course.SeatsAvailable,
			"class_size":      course.ClassSize,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	course.Version++
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.CourseOffering{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CourseOffering{}).Count(&n).Error
	return n, err
}

func (r *courseRepo) DecrementSeat(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&model.CourseOffering{}).
		Where("id = ? AND seats_available > 0", id).
		UpdateColumns(map[string]interface{}{
			"seats_available": gorm.Expr("seats_available - 1"),
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrConditionNotMet
	}
	return nil
}

func (r *courseRepo) IncrementSeat(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.CourseOffering{}).
		Where("id = ? AND seats_available < class_size", id).
		UpdateColumns(map[string]interface{}{
			"seats_available": gorm.Expr("seats_available + 1"),
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *courseRepo) ListOverbooked(ctx context.Context) ([]CourseSeatUsage, error) {
	var rows []CourseSeatUsage
	err := r.db.WithContext(ctx).
		Table("course_offerings AS c").
		Select("c.id, c.code, c.seats_available, c.class_size, COUNT(e.id) AS enrolled").
		Joins("LEFT JOIN enrollments e ON e.course_id = c.id").
		Group("c.id, c.code, c.seats_available, c.class_size").
		Having("c.seats_available + COUNT(e.id) > c.class_size").
		Scan(&rows).Error
	return rows, err
}
