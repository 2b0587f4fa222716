package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
)

// SupportMessageRepository 联系支持留言数据访问接口
type SupportMessageRepository interface {
	Create(ctx context.Context, msg *model.SupportMessage) error
	GetByID(ctx context.Context, id string) (*model.SupportMessage, error)
	List(ctx context.Context, unreadOnly bool, offset, limit int) ([]model.SupportMessage, int64, error)
	SetRead(ctx context.Context, id string, isRead bool) error
	Delete(ctx context.Context, id string) error
}

type supportMessageRepo struct {
	db *gorm.DB
}

// NewSupportMessageRepo 创建 SupportMessageRepository 实例
func NewSupportMessageRepo(db *gorm.DB) SupportMessageRepository {
	return &supportMessageRepo{db: db}
}

func (r *supportMessageRepo) Create(ctx context.Context, msg *model.SupportMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *supportMessageRepo) GetByID(ctx context.Context, id string) (*model.SupportMessage, error) {
	var msg model.SupportMessage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *supportMessageRepo) List(ctx context.Context, unreadOnly bool, offset, limit int) ([]model.SupportMessage, int64, error) {
	var list []model.SupportMessage
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SupportMessage{})
	if unreadOnly {
		db = db.Where("is_read = ?", false)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *supportMessageRepo) SetRead(ctx context.Context, id string, isRead bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.SupportMessage{}).
		Where("id = ?", id).
		Update("is_read", isRead)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *supportMessageRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.SupportMessage{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
