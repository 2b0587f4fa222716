package job

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
)

func newTestRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开 sqlite 失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取 sql.DB 失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}
	return repository.NewRepository(db), db
}

// seedDrift 构造计数漂移：快照已写入但座位与 course_count 未同步
func seedDrift(t *testing.T, repo *repository.Repository) (*model.Program, *model.User) {
	t.Helper()
	ctx := context.Background()
	p := &model.Program{
		Name:      "Software Development",
		Code:      "SDDIP",
		Term:      "Fall",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2028, 4, 30, 0, 0, 0, 0, time.UTC),
		Category:  "Diploma",
		Courses: []model.CourseOffering{{
			Code:           "SODV1101",
			Name:           "Programming Fundamentals",
			Description:    "Introduction to programming",
			Credits:        3,
			Term:           "Fall",
			StartDate:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC),
			DeliveryMode:   "Face to Face",
			SeatsAvailable: 30,
			ClassSize:      30,
		}},
	}
	if err := repo.Program.Create(ctx, p); err != nil {
		t.Fatalf("创建项目失败: %v", err)
	}
	u := &model.User{
		Username:     "amyl",
		PasswordHash: "hash",
		Email:        "amy@example.com",
		FirstName:    "Amy",
		LastName:     "Lee",
		StudentID:    model.StudentIDStart + 1,
	}
	if err := repo.User.Create(ctx, u); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	if err := repo.Enrollment.Create(ctx, p.Courses[0].Snapshot(u.ID)); err != nil {
		t.Fatalf("创建选课快照失败: %v", err)
	}
	return p, u
}

func TestRunOnce_FixesCountsAndReportsOverbooked(t *testing.T) {
	repo, _ := newTestRepo(t)
	p, u := seedDrift(t, repo)
	r := NewReconciler(repo, zap.NewNop())

	result, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce 应成功: %v", err)
	}
	if result.FixedUsers != 1 {
		t.Errorf("期望修正 1 个用户，实际=%d", result.FixedUsers)
	}
	if len(result.Overbooked) != 1 || result.Overbooked[0].ID != p.Courses[0].ID {
		t.Errorf("期望报告 1 门超额课程，实际=%+v", result.Overbooked)
	}

	got, err := repo.User.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("查询用户失败: %v", err)
	}
	if got.CourseCount != 1 {
		t.Errorf("期望 course_count=1，实际=%d", got.CourseCount)
	}

	// 座位只告警不修改
	c, _ := repo.Course.GetByID(context.Background(), p.Courses[0].ID)
	if c.SeatsAvailable != 30 {
		t.Errorf("对账不应修改座位，实际 seats_available=%d", c.SeatsAvailable)
	}
}

func TestRunOnce_Idempotent(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedDrift(t, repo)
	r := NewReconciler(repo, zap.NewNop())

	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("首次 RunOnce 应成功: %v", err)
	}
	result, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("再次 RunOnce 应成功: %v", err)
	}
	if result.FixedUsers != 0 {
		t.Errorf("计数已一致时不应再修正，实际=%d", result.FixedUsers)
	}
}

func TestRun_LogsOverbooked(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedDrift(t, repo)
	core, logs := observer.New(zap.WarnLevel)
	r := NewReconciler(repo, zap.New(core))

	r.run()

	if logs.FilterMessage("课程座位超额").Len() != 1 {
		t.Errorf("期望记录 1 条超额告警，实际=%d", logs.FilterMessage("课程座位超额").Len())
	}
	if logs.FilterMessage("已修正用户选课计数").Len() != 1 {
		t.Error("期望记录计数修正日志")
	}
}

func TestStart_InvalidSpec(t *testing.T) {
	repo, _ := newTestRepo(t)
	r := NewReconciler(repo, zap.NewNop())

	if err := r.Start("not a cron spec"); err == nil {
		t.Error("非法 cron 表达式应返回错误")
	}
}

func TestStartStop(t *testing.T) {
	repo, _ := newTestRepo(t)
	r := NewReconciler(repo, zap.NewNop())

	if err := r.Start("@every 1h"); err != nil {
		t.Fatalf("Start 应成功: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}
