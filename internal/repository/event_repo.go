package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
)

// EventRepository 活动数据访问接口
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	// List 按日期升序；from 非 nil 时只返回该时间之后的活动
	List(ctx context.Context, from *time.Time) ([]model.Event, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id string) error
}

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo 创建 EventRepository 实例
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) List(ctx context.Context, from *time.Time) ([]model.Event, error) {
	var events []model.Event
	db := r.db.WithContext(ctx)
	if from != nil {
		db = db.Where("event_date >= ?", *from)
	}
	err := db.Order("event_date ASC").Find(&events).Error
	return events, err
}

func (r *eventRepo) ListBetween(ctx context.Context, start, end time.Time) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("event_date >= ? AND event_date <= ?", start, end).
		Order("event_date ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepo) Update(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *eventRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Event{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
