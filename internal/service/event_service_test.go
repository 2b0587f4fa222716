package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
)

func setupTestEventService(t *testing.T, now time.Time) (EventService, *mockRepos) {
	t.Helper()
	m := newMockRepos()
	svc := NewEventService(m.repository(), nopLogger()).(*eventService)
	svc.now = func() time.Time { return now }
	return svc, m
}

func TestEventService_CreateAndList(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	svc, _ := setupTestEventService(t, now)
	admin := Caller{UserID: "admin-1", IsAdmin: true}

	for _, e := range []struct {
		name string
		at   time.Time
	}{
		{"Career Fair", now.AddDate(0, 0, 3)},
		{"Orientation", now.AddDate(0, 0, -30)},
		{"Hackathon", now.AddDate(0, 1, 0)},
	} {
		if _, err := svc.Create(context.Background(), admin, &dto.CreateEventRequest{Name: e.name, EventDate: e.at}); err != nil {
			t.Fatalf("Create 应成功: %v", err)
		}
	}

	all, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Orientation" {
		t.Errorf("期望按日期升序返回 3 个活动，实际=%+v", all)
	}
	if all[0].CreatedBy != "admin-1" {
		t.Errorf("期望 created_by=admin-1，实际=%s", all[0].CreatedBy)
	}

	upcoming, err := svc.List(context.Background(), true)
	if err != nil {
		t.Fatalf("List(upcoming) 应成功: %v", err)
	}
	if len(upcoming) != 2 || upcoming[0].Name != "Career Fair" {
		t.Errorf("期望 2 个即将举行的活动，实际=%+v", upcoming)
	}
}

func TestEventService_Update(t *testing.T) {
	svc, _ := setupTestEventService(t, time.Now())
	created, err := svc.Create(context.Background(), Caller{IsAdmin: true}, &dto.CreateEventRequest{
		Name: "Career Fair", EventDate: time.Now(),
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	result, err := svc.Update(context.Background(), created.ID, &dto.UpdateEventRequest{Name: strPtr("Spring Career Fair")})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Name != "Spring Career Fair" {
		t.Errorf("期望名称已更新，实际=%s", result.Name)
	}
}

func TestEventService_NotFound(t *testing.T) {
	svc, _ := setupTestEventService(t, time.Now())

	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("Get 期望 ErrEventNotFound，实际: %v", err)
	}
	if _, err := svc.Update(context.Background(), "ghost", &dto.UpdateEventRequest{}); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("Update 期望 ErrEventNotFound，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), "ghost"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("Delete 期望 ErrEventNotFound，实际: %v", err)
	}
}
