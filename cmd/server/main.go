package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rgabuco/webapp-sodv2201-final/config"
	"github.com/rgabuco/webapp-sodv2201-final/internal/api/handler"
	"github.com/rgabuco/webapp-sodv2201-final/internal/api/router"
	"github.com/rgabuco/webapp-sodv2201-final/internal/job"
	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
	"github.com/rgabuco/webapp-sodv2201-final/internal/service"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/database"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/jwt"
	applogger "github.com/rgabuco/webapp-sodv2201-final/pkg/logger"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/mailer"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/redis"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/storage"
)

func main() {
	// 0. 本地 .env（不存在时忽略）
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("PORTAL_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(db, cfg.Database.Driver, logger, model.All()...); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与限流将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 头像存储（可选）
	var photos service.PhotoStorage
	if store, err := storage.NewPhotoStore(&cfg.Storage); err != nil {
		logger.Warn("头像存储初始化失败，头像上传将不可用", zap.Error(err))
	} else {
		photos = store
	}

	// 6. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	mail := mailer.New(&cfg.Mail, logger)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, mail, photos, logger)
	h := handler.NewHandler(svc)

	// 7. 初始化路由
	engine, err := router.Setup(cfg, h, jwtMgr, rdb, logger)
	if err != nil {
		logger.Fatal("初始化路由失败", zap.Error(err))
	}

	// 8. 后台对账任务
	var reconciler *job.Reconciler
	if cfg.Job.ReconcileEnabled {
		reconciler = job.NewReconciler(repo, logger)
		if err := reconciler.Start(cfg.Job.ReconcileCron); err != nil {
			logger.Fatal("启动对账任务失败", zap.Error(err))
		}
	}

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if reconciler != nil {
		reconciler.Stop(ctx)
	}

	// 关闭数据库连接
	sqlDB.Close()

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
