package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/mailer"
)

// ErrSupportMessageNotFound 留言不存在
var ErrSupportMessageNotFound = errors.New("留言不存在")

// SupportService 联系支持业务接口
type SupportService interface {
	// Create 公开提交，保存为未读并尽力发送回执邮件
	Create(ctx context.Context, req *dto.CreateSupportMessageRequest) (*dto.SupportMessageResponse, error)
	List(ctx context.Context, req *dto.SupportMessageListRequest) ([]dto.SupportMessageResponse, int64, error)
	Get(ctx context.Context, id string) (*dto.SupportMessageResponse, error)
	SetRead(ctx context.Context, id string, req *dto.UpdateSupportMessageRequest) (*dto.SupportMessageResponse, error)
	Delete(ctx context.Context, id string) error
}

type supportService struct {
	repo   *repository.Repository
	mail   mailer.Mailer
	logger *zap.Logger
}

// NewSupportService 创建 SupportService 实例
func NewSupportService(repo *repository.Repository, mail mailer.Mailer, logger *zap.Logger) SupportService {
	return &supportService{repo: repo, mail: mail, logger: logger}
}

func (s *supportService) Create(ctx context.Context, req *dto.CreateSupportMessageRequest) (*dto.SupportMessageResponse, error) {
	msg := &model.SupportMessage{
		Username: req.Username,
		Email:    req.Email,
		Message:  req.Message,
	}
	if err := s.repo.SupportMessage.Create(ctx, msg); err != nil {
		s.logger.Error("保存支持留言失败", zap.Error(err))
		return nil, err
	}

	s.acknowledge(msg)
	return toSupportMessageResponse(msg), nil
}

func (s *supportService) List(ctx context.Context, req *dto.SupportMessageListRequest) ([]dto.SupportMessageResponse, int64, error) {
	list, total, err := s.repo.SupportMessage.List(ctx, req.Unread, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询支持留言失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.SupportMessageResponse, 0, len(list))
	for i := range list {
		result = append(result, *toSupportMessageResponse(&list[i]))
	}
	return result, total, nil
}

func (s *supportService) Get(ctx context.Context, id string) (*dto.SupportMessageResponse, error) {
	msg, err := s.repo.SupportMessage.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupportMessageNotFound
		}
		s.logger.Error("查询支持留言失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toSupportMessageResponse(msg), nil
}

func (s *supportService) SetRead(ctx context.Context, id string, req *dto.UpdateSupportMessageRequest) (*dto.SupportMessageResponse, error) {
	if err := s.repo.SupportMessage.SetRead(ctx, id, *req.IsRead); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupportMessageNotFound
		}
		s.logger.Error("更新留言状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *supportService) Delete(ctx context.Context, id string) error {
	if err := s.repo.SupportMessage.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSupportMessageNotFound
		}
		s.logger.Error("删除支持留言失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// acknowledge 异步发送回执邮件，失败只记日志
func (s *supportService) acknowledge(msg *model.SupportMessage) {
	if s.mail == nil {
		return
	}
	subject := "We received your message"
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Thanks for contacting student support. We will get back to you soon.</p>",
		msg.Username,
	)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := s.mail.Send(ctx, msg.Email, subject, body); err != nil {
			s.logger.Warn("回执邮件发送失败", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}()
}
