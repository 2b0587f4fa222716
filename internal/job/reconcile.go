package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
)

const runTimeout = time.Minute

// ReconcileResult 单次对账结果
type ReconcileResult struct {
	FixedUsers int64
	Overbooked []repository.CourseSeatUsage
}

// Reconciler 选课计数对账任务
//
// 按 enrollments 实际行数修正 users.course_count；
// seats_available + 已选人数 > class_size 的课程只记录告警，不自动修改座位
type Reconciler struct {
	repo   *repository.Repository
	cron   *cron.Cron
	logger *zap.Logger
}

// NewReconciler 创建对账任务
func NewReconciler(repo *repository.Repository, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		repo:   repo,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
	}
}

// Start 按 cron 表达式（支持 @every 1h 等描述符）定时执行
func (r *Reconciler) Start(spec string) error {
	if _, err := r.cron.AddFunc(spec, r.run); err != nil {
		return fmt.Errorf("注册对账任务失败: %w", err)
	}
	r.cron.Start()
	r.logger.Info("选课对账任务已启动", zap.String("spec", spec))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (r *Reconciler) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		r.logger.Warn("等待对账任务结束超时")
	}
}

// RunOnce 执行一次对账
func (r *Reconciler) RunOnce(ctx context.Context) (*ReconcileResult, error) {
	fixed, err := r.repo.User.ReconcileCourseCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("修正选课计数失败: %w", err)
	}

	overbooked, err := r.repo.Course.ListOverbooked(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询超额课程失败: %w", err)
	}

	return &ReconcileResult{FixedUsers: fixed, Overbooked: overbooked}, nil
}

func (r *Reconciler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	result, err := r.RunOnce(ctx)
	if err != nil {
		r.logger.Error("选课对账失败", zap.Error(err))
		return
	}

	if result.FixedUsers > 0 {
		r.logger.Warn("已修正用户选课计数", zap.Int64("users", result.FixedUsers))
	}
	for _, c := range result.Overbooked {
		r.logger.Error("课程座位超额",
			zap.String("course_id", c.ID),
			zap.String("code", c.Code),
			zap.Int("seats_available", c.SeatsAvailable),
			zap.Int64("enrolled", c.Enrolled),
			zap.Int("class_size", c.ClassSize),
		)
	}
}
