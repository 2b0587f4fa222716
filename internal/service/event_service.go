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

// ErrEventNotFound 活动不存在
var ErrEventNotFound = errors.New("活动不存在")

// EventService 校园活动业务接口
type EventService interface {
	// List 按日期升序；upcoming 为 true 时只返回当前时间之后的活动
	List(ctx context.Context, upcoming bool) ([]dto.EventResponse, error)
	Get(ctx context.Context, id string) (*dto.EventResponse, error)
	Create(ctx context.Context, caller Caller, req *dto.CreateEventRequest) (*dto.EventResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateEventRequest) (*dto.EventResponse, error)
	Delete(ctx context.Context, id string) error
}

type eventService struct {
	repo   *repository.Repository
	now    func() time.Time
	logger *zap.Logger
}

// NewEventService 创建 EventService 实例
func NewEventService(repo *repository.Repository, logger *zap.Logger) EventService {
	return &eventService{repo: repo, now: time.Now, logger: logger}
}

func (s *eventService) List(ctx context.Context, upcoming bool) ([]dto.EventResponse, error) {
	var from *time.Time
	if upcoming {
		t := s.now()
		from = &t
	}
	events, err := s.repo.Event.List(ctx, from)
	if err != nil {
		s.logger.Error("查询活动列表失败", zap.Error(err))
		return nil, err
	}
	return toEventResponses(events), nil
}

func (s *eventService) Get(ctx context.Context, id string) (*dto.EventResponse, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toEventResponse(event)
	return &resp, nil
}

func (s *eventService) Create(ctx context.Context, caller Caller, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	event := &model.Event{
		Name:      req.Name,
		EventDate: req.EventDate,
	}
	if caller.UserID != "" {
		createdBy := caller.UserID
		event.CreatedBy = &createdBy
	}

	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("创建活动失败", zap.Error(err))
		return nil, err
	}

	resp := toEventResponse(event)
	return &resp, nil
}

func (s *eventService) Update(ctx context.Context, id string, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.EventDate != nil {
		event.EventDate = *req.EventDate
	}

	if err := s.repo.Event.Update(ctx, event); err != nil {
		s.logger.Error("更新活动失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toEventResponse(event)
	return &resp, nil
}

func (s *eventService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Event.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		s.logger.Error("删除活动失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *eventService) getEvent(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.repo.Event.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("查询活动失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return event, nil
}
