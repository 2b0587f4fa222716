package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
)

// EnrollmentRepository 选课快照数据访问接口
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error)
	GetByUserAndCode(ctx context.Context, userID, code string) (*model.Enrollment, error)
	// DeleteByUserAndCode 删除快照，不存在时返回 gorm.ErrRecordNotFound
	DeleteByUserAndCode(ctx context.Context, userID, code string) error
	DeleteByUser(ctx context.Context, userID string) error
	CountByCourse(ctx context.Context, courseID string) (int64, error)
	CountByProgram(ctx context.Context, programID string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepo) ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *enrollmentRepo) GetByUserAndCode(ctx context.Context, userID, code string) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ?", userID, code).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) DeleteByUserAndCode(ctx context.Context, userID, code string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ?", userID, code).
		Delete(&model.Enrollment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRepo) DeleteByUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Enrollment{}).Error
}

func (r *enrollmentRepo) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&n).Error
	return n, err
}

func (r *enrollmentRepo) CountByProgram(ctx context.Context, programID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Joins("JOIN course_offerings ON course_offerings.id = enrollments.course_id").
		Where("course_offerings.program_id = ?", programID).
		Count(&n).Error
	return n, err
}

func (r *enrollmentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).Count(&n).Error
	return n, err
}
