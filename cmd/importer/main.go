// importer 从 JSON 文件批量导入项目目录（含课程），或删除所有无选课的项目
//
//	importer -file programs.json -action import
//	importer -action delete
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rgabuco/webapp-sodv2201-final/config"
	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
	"github.com/rgabuco/webapp-sodv2201-final/internal/service"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/database"
	applogger "github.com/rgabuco/webapp-sodv2201-final/pkg/logger"
)

const (
	actionImport = "import"
	actionDelete = "delete"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "配置文件路径")
	file := flag.String("file", "", "项目 JSON 文件（import 时必填）")
	action := flag.String("action", "", "import 或 delete")
	timeout := flag.Duration("timeout", 2*time.Minute, "整体超时")
	flag.Parse()

	if *action != actionImport && *action != actionDelete {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var programs []dto.CreateProgramRequest
	if *action == actionImport {
		programs, err = loadPrograms(*file, newValidator())
		if err != nil {
			logger.Fatal("读取导入文件失败", zap.String("file", *file), zap.Error(err))
		}
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := database.RunMigrations(db, cfg.Database.Driver, logger, model.All()...); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	programSvc := service.NewProgramService(repository.NewRepository(db), logger)
	result, err := run(ctx, programSvc, *action, programs)
	if err != nil {
		logger.Fatal("执行失败", zap.String("action", *action), zap.Error(err))
	}

	logger.Info("执行完成",
		zap.String("action", *action),
		zap.Int("created", result.Created),
		zap.Int("deleted", result.Deleted),
		zap.Strings("skipped", result.Skipped),
	)
}

func run(ctx context.Context, svc service.ProgramService, action string, programs []dto.CreateProgramRequest) (*service.ImportResult, error) {
	switch action {
	case actionImport:
		return svc.Import(ctx, programs)
	case actionDelete:
		return svc.DeleteAll(ctx)
	default:
		return nil, fmt.Errorf("未知操作: %s", action)
	}
}

// newValidator 与 HTTP 层使用同一套 binding 规则
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	if err := dto.RegisterValidators(v); err != nil {
		panic(err)
	}
	return v
}

// loadPrograms 读取并逐条校验项目，任一条不合法则整体拒绝
func loadPrograms(path string, v *validator.Validate) ([]dto.CreateProgramRequest, error) {
	if path == "" {
		return nil, errors.New("缺少 -file 参数")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var programs []dto.CreateProgramRequest
	if err := json.Unmarshal(data, &programs); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}
	if len(programs) == 0 {
		return nil, errors.New("文件中没有项目")
	}

	for i := range programs {
		if err := v.Struct(&programs[i]); err != nil {
			return nil, fmt.Errorf("第 %d 个项目 %q 校验失败: %s", i+1, programs[i].Code, dto.FormatValidationErrors(err))
		}
	}
	return programs, nil
}
