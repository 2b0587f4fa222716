package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
)

func setupTestSupportService(t *testing.T) (SupportService, *mockRepos, *mockMailer) {
	t.Helper()
	m := newMockRepos()
	mail := newMockMailer()
	return NewSupportService(m.repository(), mail, nopLogger()), m, mail
}

func supportRequest(username string) *dto.CreateSupportMessageRequest {
	return &dto.CreateSupportMessageRequest{
		Username: username,
		Email:    username + "@test.com",
		Message:  "I cannot see my enrolled courses.",
	}
}

func TestSupportService_Create_StoredUnreadAndAcknowledged(t *testing.T) {
	svc, m, mail := setupTestSupportService(t)

	result, err := svc.Create(context.Background(), supportRequest("alice"))
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.IsRead {
		t.Error("新留言应为未读")
	}
	if len(m.messages.messages) != 1 {
		t.Errorf("留言应已保存，实际=%d", len(m.messages.messages))
	}

	select {
	case to := <-mail.sent:
		if to != "alice@test.com" {
			t.Errorf("回执邮件收件人错误: %s", to)
		}
	case <-time.After(time.Second):
		t.Error("期望发送回执邮件")
	}
}

func TestSupportService_SetReadAndFilter(t *testing.T) {
	svc, _, _ := setupTestSupportService(t)
	first, _ := svc.Create(context.Background(), supportRequest("alice"))
	if _, err := svc.Create(context.Background(), supportRequest("bobby")); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	result, err := svc.SetRead(context.Background(), first.ID, &dto.UpdateSupportMessageRequest{IsRead: boolPtr(true)})
	if err != nil {
		t.Fatalf("SetRead 应成功: %v", err)
	}
	if !result.IsRead {
		t.Error("期望 is_read=true")
	}

	unread, total, err := svc.List(context.Background(), &dto.SupportMessageListRequest{Unread: true})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || unread[0].Username != "bobby" {
		t.Errorf("期望仅 bobby 未读，实际 total=%d", total)
	}
}

func TestSupportService_NotFound(t *testing.T) {
	svc, _, _ := setupTestSupportService(t)

	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, ErrSupportMessageNotFound) {
		t.Errorf("Get 期望 ErrSupportMessageNotFound，实际: %v", err)
	}
	if _, err := svc.SetRead(context.Background(), "ghost", &dto.UpdateSupportMessageRequest{IsRead: boolPtr(true)}); !errors.Is(err, ErrSupportMessageNotFound) {
		t.Errorf("SetRead 期望 ErrSupportMessageNotFound，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), "ghost"); !errors.Is(err, ErrSupportMessageNotFound) {
		t.Errorf("Delete 期望 ErrSupportMessageNotFound，实际: %v", err)
	}
}
