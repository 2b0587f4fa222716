//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rgabuco/webapp-sodv2201-final/config"
	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/database"
	pkgerrors "github.com/rgabuco/webapp-sodv2201-final/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=portal password=portal_password dbname=student_portal_test sslmode=disable TimeZone=America/Edmonton"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(testDB, config.DriverPostgres, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "执行迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupCourse 创建一个项目及一门课程，返回课程与清理函数
func setupCourse(t *testing.T, seats int) (*model.CourseOffering, func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano() % 1_000_000

	p := &model.Program{
		Name:      fmt.Sprintf("集成测试项目-%d", suffix),
		Code:      fmt.Sprintf("P%d", suffix),
		Term:      "Fall",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2027, 4, 30, 0, 0, 0, 0, time.UTC),
		Category:  "Diploma",
		Courses: []model.CourseOffering{{
			Code:           fmt.Sprintf("C%d", suffix),
			Name:           "Integration Course",
			Description:    "Integration test course",
			Credits:        3,
			Term:           "Fall",
			StartDate:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC),
			DeliveryMode:   "Online Synchronous",
			SeatsAvailable: seats,
			ClassSize:      30,
		}},
	}
	if err := testDB.WithContext(ctx).Create(p).Error; err != nil {
		t.Fatalf("创建项目失败: %v", err)
	}

	cleanup := func() {
		testDB.Where("id = ?", p.ID).Delete(&model.Program{})
	}
	return &p.Courses[0], cleanup
}

// ═══════════════════════════════════════════════════════════
// Test: Conditional seat decrement under contention
// ═══════════════════════════════════════════════════════════

func TestDecrementSeat_ConcurrentLastSeats(t *testing.T) {
	const seats = 3
	const workers = 20

	c, cleanup := setupCourse(t, seats)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var ok, full int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Course.DecrementSeat(ctx, c.ID)
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, pkgerrors.ErrConditionNotMet):
				atomic.AddInt32(&full, 1)
			default:
				t.Errorf("意外错误: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != seats {
		t.Errorf("期望恰好 %d 次扣减成功，实际=%d", seats, ok)
	}
	if full != workers-seats {
		t.Errorf("期望 %d 次因无座失败，实际=%d", workers-seats, full)
	}

	got, err := repo.Course.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("查询课程失败: %v", err)
	}
	if got.SeatsAvailable != 0 {
		t.Errorf("期望 seats_available=0，实际=%d", got.SeatsAvailable)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: CHECK constraint backs the invariant
// ═══════════════════════════════════════════════════════════

func TestSeatsCheckConstraint(t *testing.T) {
	c, cleanup := setupCourse(t, 5)
	defer cleanup()

	err := testDB.Model(&model.CourseOffering{}).
		Where("id = ?", c.ID).
		UpdateColumn("seats_available", 31).Error
	if err == nil {
		t.Fatal("seats_available > class_size 应被 CHECK 约束拒绝")
	}
}

func TestNextStudentID_ConcurrentUnique(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	const workers = 10
	ids := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := repo.BeginTx(ctx)
			if err != nil {
				t.Errorf("BeginTx 失败: %v", err)
				return
			}
			id, err := repo.WithTx(tx).User.NextStudentID(ctx)
			if err != nil {
				tx.Rollback()
				t.Errorf("NextStudentID 失败: %v", err)
				return
			}
			if err := tx.Commit().Error; err != nil {
				t.Errorf("Commit 失败: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("学号重复分配: %d", id)
		}
		seen[id] = true
	}
}
