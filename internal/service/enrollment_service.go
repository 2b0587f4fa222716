package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rgabuco/webapp-sodv2201-final/config"
	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
	pkgerrors "github.com/rgabuco/webapp-sodv2201-final/pkg/errors"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/mailer"
)

// ── 选课模块业务错误 ──

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrCourseFull         = errors.New("课程已无可用座位")
	ErrEnrollmentNotFound = errors.New("未选该课程")
)

const mailTimeout = 10 * time.Second

// EnrollmentService 选课业务接口
//
// 选课与退课都在单个事务内同时修改课程座位、用户选课计数与选课快照，
// 任一步失败整体回滚；座位与计数均通过条件更新维护，不做先读后写。
type EnrollmentService interface {
	EnrollUserInCourse(ctx context.Context, caller Caller, userID, courseCode string) (*dto.UserCoursesResponse, error)
	WithdrawUserFromCourse(ctx context.Context, caller Caller, userID, courseCode string) (*dto.UserCoursesResponse, error)
	ListUserCourses(ctx context.Context, caller Caller, userID string) (*dto.UserCoursesResponse, error)
}

type enrollmentService struct {
	repo    *repository.Repository
	mail    mailer.Mailer
	timeout time.Duration
	logger  *zap.Logger
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(cfg *config.Config, repo *repository.Repository, mail mailer.Mailer, logger *zap.Logger) EnrollmentService {
	timeout := cfg.Enrollment.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &enrollmentService{repo: repo, mail: mail, timeout: timeout, logger: logger}
}

// ────────────────────── EnrollUserInCourse ──────────────────────

func (s *enrollmentService) EnrollUserInCourse(ctx context.Context, caller Caller, userID, courseCode string) (*dto.UserCoursesResponse, error) {
	if !caller.CanAccessUser(userID) {
		return nil, ErrNoPermission
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// 1. 用户存在
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 2-3. 数量上限与重复
	if err := enrollmentList(user.Courses).CheckCanAdd(courseCode); err != nil {
		return nil, err
	}

	// 4. 课程存在
	cat := newCatalog(s.repo)
	program, err := cat.FindProgramByCourseCode(ctx, courseCode)
	if err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("code", courseCode), zap.Error(err))
		return nil, err
	}
	course, err := FindCourseInProgram(program, courseCode)
	if err != nil {
		return nil, err
	}

	// 5. 有可用座位
	if course.SeatsAvailable <= 0 {
		return nil, ErrCourseFull
	}

	// ── 事务：计数 +1、座位 -1、写入快照 ──
	if err := s.applyEnroll(ctx, userID, course); err != nil {
		return nil, err
	}

	s.logger.Info("选课成功",
		zap.String("user_id", userID),
		zap.String("course", courseCode),
		zap.String("caller", caller.UserID),
	)
	s.notifyEnrolled(user, course)

	return s.listCourses(ctx, userID)
}

func (s *enrollmentService) applyEnroll(ctx context.Context, userID string, course *model.CourseOffering) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)
	rollback := func() {
		if tx != nil {
			tx.Rollback()
		}
	}

	if err := txRepo.User.IncrementCourseCount(ctx, userID); err != nil {
		rollback()
		if errors.Is(err, pkgerrors.ErrConditionNotMet) {
			return ErrUserCourseLimit
		}
		s.logger.Error("更新选课计数失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	if err := txRepo.Course.DecrementSeat(ctx, course.ID); err != nil {
		rollback()
		if errors.Is(err, pkgerrors.ErrConditionNotMet) {
			return ErrCourseFull
		}
		s.logger.Error("扣减座位失败", zap.String("course_id", course.ID), zap.Error(err))
		return err
	}

	if err := txRepo.Enrollment.Create(ctx, course.Snapshot(userID)); err != nil {
		rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEnrollment
		}
		s.logger.Error("写入选课快照失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交选课事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// ────────────────────── WithdrawUserFromCourse ──────────────────────

func (s *enrollmentService) WithdrawUserFromCourse(ctx context.Context, caller Caller, userID, courseCode string) (*dto.UserCoursesResponse, error) {
	if !caller.CanAccessUser(userID) {
		return nil, ErrNoPermission
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	enrollment, ok := enrollmentList(user.Courses).Find(courseCode)
	if !ok {
		return nil, ErrEnrollmentNotFound
	}

	if err := s.applyWithdraw(ctx, userID, enrollment); err != nil {
		return nil, err
	}

	s.logger.Info("退课成功",
		zap.String("user_id", userID),
		zap.String("course", courseCode),
		zap.String("caller", caller.UserID),
	)

	return s.listCourses(ctx, userID)
}

func (s *enrollmentService) applyWithdraw(ctx context.Context, userID string, enrollment *model.Enrollment) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)
	rollback := func() {
		if tx != nil {
			tx.Rollback()
		}
	}

	if err := txRepo.Enrollment.DeleteByUserAndCode(ctx, userID, enrollment.Code); err != nil {
		rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		s.logger.Error("删除选课快照失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	// 座位归还以 class_size 为上限
	applied, err := txRepo.Course.IncrementSeat(ctx, enrollment.CourseID)
	if err != nil {
		rollback()
		s.logger.Error("归还座位失败", zap.String("course_id", enrollment.CourseID), zap.Error(err))
		return err
	}
	if !applied {
		s.logger.Warn("课程座位已满额，归还被截断",
			zap.String("course_id", enrollment.CourseID),
			zap.String("code", enrollment.Code),
		)
	}

	if err := txRepo.User.DecrementCourseCount(ctx, userID); err != nil {
		if !errors.Is(err, pkgerrors.ErrConditionNotMet) {
			rollback()
			s.logger.Error("更新选课计数失败", zap.String("user_id", userID), zap.Error(err))
			return err
		}
		// 计数已为 0 说明存在漂移，交由定时对账修正
		s.logger.Warn("选课计数与快照不一致", zap.String("user_id", userID))
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交退课事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// ────────────────────── ListUserCourses ──────────────────────

func (s *enrollmentService) ListUserCourses(ctx context.Context, caller Caller, userID string) (*dto.UserCoursesResponse, error) {
	if !caller.CanAccessUser(userID) {
		return nil, ErrNoPermission
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserCoursesResponse(user.Courses), nil
}

// ── 内部辅助方法 ──

func (s *enrollmentService) getUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *enrollmentService) listCourses(ctx context.Context, userID string) (*dto.UserCoursesResponse, error) {
	list, err := s.repo.Enrollment.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询已选课程失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toUserCoursesResponse(list), nil
}

// notifyEnrolled 异步发送选课确认邮件，失败只记日志
func (s *enrollmentService) notifyEnrolled(user *model.User, course *model.CourseOffering) {
	if s.mail == nil || user.Email == "" {
		return
	}
	subject := fmt.Sprintf("Enrollment confirmed: %s", course.Code)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>You are now enrolled in <b>%s %s</b> (%s, %s).</p>",
		user.FirstName, course.Code, course.Name, course.Term, course.DeliveryMode,
	)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := s.mail.Send(ctx, user.Email, subject, body); err != nil {
			s.logger.Warn("选课确认邮件发送失败", zap.String("user_id", user.ID), zap.Error(err))
		}
	}()
}
