package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rgabuco/webapp-sodv2201-final/config"
	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
)

// ── 测试辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Auth:       config.AuthConfig{JWTSecret: "test-secret-key-for-unit-testing-2026", AccessTokenTTL: time.Hour},
		Database:   config.DatabaseConfig{Timezone: "UTC"},
		Enrollment: config.EnrollmentConfig{Timeout: 5 * time.Second},
	}
}

func testCourse(code string, seats, size int) model.CourseOffering {
	return model.CourseOffering{
		Code:           code,
		Name:           "Course " + code,
		Description:    "Description of " + code,
		Credits:        3,
		Term:           "Fall",
		StartDate:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC),
		Time:           "8:00 AM - 10:00 AM",
		Days:           "Monday, Wednesday",
		Campus:         "Main Campus",
		DeliveryMode:   "Face to Face",
		SeatsAvailable: seats,
		ClassSize:      size,
	}
}

func testProgram(code string, courses ...model.CourseOffering) *model.Program {
	return &model.Program{
		Name:      "Program " + code,
		Code:      code,
		Term:      "Fall",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2027, 4, 30, 0, 0, 0, 0, time.UTC),
		Category:  "Diploma",
		Courses:   courses,
	}
}

func testUser(username string, isAdmin bool) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	return &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        username + "@test.com",
		FirstName:    "First" + username,
		LastName:     "Last",
		Program:      "Software Development",
		Department:   "Technology",
		IsAdmin:      isAdmin,
	}
}

func seedProgram(t *testing.T, repo *repository.Repository, code string, courses ...model.CourseOffering) *model.Program {
	t.Helper()
	p := testProgram(code, courses...)
	if err := repo.Program.Create(context.Background(), p); err != nil {
		t.Fatalf("创建项目失败: %v", err)
	}
	return p
}

func seedUser(t *testing.T, repo *repository.Repository, username string, isAdmin bool) *model.User {
	t.Helper()
	u := testUser(username, isAdmin)
	id, err := repo.User.NextStudentID(context.Background())
	if err != nil {
		t.Fatalf("分配学号失败: %v", err)
	}
	u.StudentID = id
	if err := repo.User.Create(context.Background(), u); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return u
}

// newSQLiteRepo 内存 sqlite，单连接串行化写入
func newSQLiteRepo(t *testing.T) *repository.Repository {
	t.Helper()
	return repository.NewRepository(openSQLite(t, "file::memory:"))
}

// newSQLiteFileDB 文件库，连接被丢弃后数据仍在
func newSQLiteFileDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openSQLite(t, filepath.Join(t.TempDir(), "portal.db"))
}

func openSQLite(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
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
	return db
}

func nopLogger() *zap.Logger { return zap.NewNop() }

// sqliteFixture 直接读库断言座位与计数
type sqliteFixture struct {
	t    *testing.T
	repo *repository.Repository
}

func (f *sqliteFixture) assertSeats(courseID string, want int) {
	f.t.Helper()
	c, err := f.repo.Course.GetByID(context.Background(), courseID)
	if err != nil {
		f.t.Fatalf("查询课程失败: %v", err)
	}
	if c.SeatsAvailable != want {
		f.t.Errorf("期望 seats_available=%d，实际=%d", want, c.SeatsAvailable)
	}
}

func (f *sqliteFixture) assertCourseCount(userID string, want int) {
	f.t.Helper()
	u, err := f.repo.User.GetByID(context.Background(), userID)
	if err != nil {
		f.t.Fatalf("查询用户失败: %v", err)
	}
	if u.CourseCount != want {
		f.t.Errorf("期望 course_count=%d，实际=%d", want, u.CourseCount)
	}
	if len(u.Courses) != want {
		f.t.Errorf("期望 %d 条选课快照，实际=%d", want, len(u.Courses))
	}
}
