package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rgabuco/webapp-sodv2201-final/config"
	"github.com/rgabuco/webapp-sodv2201-final/internal/api/handler"
	"github.com/rgabuco/webapp-sodv2201-final/internal/api/middleware"
	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/jwt"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/redis"
)

// 公开写接口的限流阈值
const (
	loginRateLimit   = 10
	signupRateLimit  = 5
	supportRateLimit = 5
	rateLimitWindow  = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时关闭限流与 Token 黑名单
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			return nil, fmt.Errorf("注册校验规则失败: %w", err)
		}
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	if cfg.Server.BodyLimit > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── 头像静态文件 ──
	if cfg.Storage.UploadDir != "" && cfg.Storage.PublicPrefix != "" {
		r.Static(cfg.Storage.PublicPrefix, cfg.Storage.UploadDir)
	}

	auth := middleware.JWTAuth(jwtMgr, rdb)
	admin := middleware.AdminOnly()

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 公开接口
		v1.POST("/auth/login", middleware.RateLimit(rdb, loginRateLimit, rateLimitWindow), h.Auth.Login)
		v1.POST("/users", middleware.RateLimit(rdb, signupRateLimit, rateLimitWindow), h.User.Signup)
		v1.POST("/support-messages", middleware.RateLimit(rdb, supportRateLimit, rateLimitWindow), h.Support.CreateMessage)

		v1.GET("/programs", h.Program.ListPrograms)
		v1.GET("/programs/:id", h.Program.GetProgram)
		v1.GET("/courses", h.Course.ListCourses)
		v1.GET("/courses/:id", h.Course.GetCourse)
		v1.GET("/events", h.Event.ListEvents)
		v1.GET("/events/:id", h.Event.GetEvent)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(auth)
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.GET("/dashboard", h.Dashboard.GetDashboard)

			// 用户模块（本人或管理员由 Service 层鉴权）
			users := authorized.Group("/users")
			{
				users.GET("", admin, h.User.ListUsers)
				users.GET("/export", admin, h.Export.ExportStudents)
				users.GET("/:id", h.User.GetUser)
				users.PATCH("/:id", h.User.UpdateUser)
				users.DELETE("/:id", admin, h.User.DeleteUser)
				users.POST("/:id/profile-photo", h.User.UploadProfilePhoto)

				// 选课
				users.GET("/:id/courses", h.Enrollment.ListCourses)
				users.POST("/:id/courses", h.Enrollment.Enroll)
				users.DELETE("/:id/courses", h.Enrollment.Withdraw)
				users.GET("/:id/courses/calendar", h.Export.ExportCalendar)
			}

			// 以下仅管理员
			adminOnly := authorized.Group("", admin)
			{
				adminOnly.POST("/programs", h.Program.CreateProgram)
				adminOnly.PATCH("/programs/:id", h.Program.UpdateProgram)
				adminOnly.DELETE("/programs/:id", h.Program.DeleteProgram)

				adminOnly.POST("/courses", h.Course.CreateCourse)
				adminOnly.PATCH("/courses/:id", h.Course.UpdateCourse)
				adminOnly.DELETE("/courses/:id", h.Course.DeleteCourse)

				adminOnly.POST("/events", h.Event.CreateEvent)
				adminOnly.PATCH("/events/:id", h.Event.UpdateEvent)
				adminOnly.DELETE("/events/:id", h.Event.DeleteEvent)

				adminOnly.GET("/support-messages", h.Support.ListMessages)
				adminOnly.GET("/support-messages/:id", h.Support.GetMessage)
				adminOnly.PATCH("/support-messages/:id", h.Support.SetRead)
				adminOnly.DELETE("/support-messages/:id", h.Support.DeleteMessage)
			}
		}
	}

	return r, nil
}
