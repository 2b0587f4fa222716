package service

import (
	"context"
	"errors"
	"time"

	"github.com/jinzhu/now"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
)

const (
	dashboardRoleStudent = "student"
	dashboardRoleAdmin   = "admin"

	statusEnrolled    = "Enrolled"
	statusNotEnrolled = "Not Enrolled"
)

// DashboardService 仪表盘业务接口
type DashboardService interface {
	// Get 学生返回选课状态与课程；管理员返回全局统计与学生选课概览；两者都带本周活动
	Get(ctx context.Context, caller Caller) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	repo   *repository.Repository
	now    func() time.Time
	logger *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, now: time.Now, logger: logger}
}

func (s *dashboardService) Get(ctx context.Context, caller Caller) (*dto.DashboardResponse, error) {
	var (
		resp *dto.DashboardResponse
		err  error
	)
	if caller.IsAdmin {
		resp, err = s.adminView(ctx)
	} else {
		resp, err = s.studentView(ctx, caller.UserID)
	}
	if err != nil {
		return nil, err
	}

	resp.EventsThisWeek, err = s.eventsThisWeek(ctx)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *dashboardService) studentView(ctx context.Context, userID string) (*dto.DashboardResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	status := statusNotEnrolled
	if len(user.Courses) > 0 {
		status = statusEnrolled
	}
	return &dto.DashboardResponse{
		Role:    dashboardRoleStudent,
		Status:  status,
		Courses: toEnrolledCourses(user.Courses),
	}, nil
}

func (s *dashboardService) adminView(ctx context.Context) (*dto.DashboardResponse, error) {
	var stats dto.DashboardStats
	var err error

	if stats.TotalStudents, err = s.repo.User.CountStudents(ctx); err != nil {
		return nil, s.statError("学生", err)
	}
	if stats.TotalPrograms, err = s.repo.Program.Count(ctx); err != nil {
		return nil, s.statError("项目", err)
	}
	if stats.TotalCourses, err = s.repo.Course.Count(ctx); err != nil {
		return nil, s.statError("课程", err)
	}
	if stats.EnrolledSeats, err = s.repo.Enrollment.Count(ctx); err != nil {
		return nil, s.statError("选课", err)
	}

	students, err := s.repo.User.ListStudents(ctx)
	if err != nil {
		return nil, s.statError("学生列表", err)
	}
	rows := make([]dto.StudentEnrollmentRow, 0, len(students))
	for i := range students {
		u := &students[i]
		rows = append(rows, dto.StudentEnrollmentRow{
			ID:           u.ID,
			StudentID:    u.StudentID,
			Name:         u.FullName(),
			Program:      u.Program,
			Department:   u.Department,
			CoursesCount: u.CourseCount,
		})
	}

	return &dto.DashboardResponse{
		Role:     dashboardRoleAdmin,
		Stats:    &stats,
		Students: rows,
	}, nil
}

// eventsThisWeek 周一至周日
func (s *dashboardService) eventsThisWeek(ctx context.Context) ([]dto.EventResponse, error) {
	week := (&now.Config{WeekStartDay: time.Monday}).With(s.now())
	events, err := s.repo.Event.ListBetween(ctx, week.BeginningOfWeek(), week.EndOfWeek())
	if err != nil {
		s.logger.Error("查询本周活动失败", zap.Error(err))
		return nil, err
	}
	return toEventResponses(events), nil
}

func (s *dashboardService) statError(what string, err error) error {
	s.logger.Error("统计"+what+"失败", zap.Error(err))
	return err
}
