package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"colab/backend/config"
	"colab/backend/internal/api/handler"
	"colab/backend/internal/api/middleware"
	"colab/backend/pkg/jwt"
	"colab/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎；rdb 为 nil 时吊销检查与限流均被跳过
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 避免把 nil 指针装进接口
	var (
		revoked middleware.RevocationChecker
		limiter middleware.RateLimiter
	)
	if rdb != nil {
		revoked, limiter = rdb, rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(db, rdb))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, revoked))
		authorized.Use(middleware.RateLimit(limiter, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window, logger))
		{
			staff := middleware.RoleAuth(jwt.RoleAdmin, jwt.RoleInstructor)

			// 课程模块
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.ListCourses)
				courses.GET("/:id", h.Course.GetCourse)
				courses.POST("", staff, h.Course.CreateCourse)
				courses.PUT("/:id", staff, h.Course.UpdateCourse)
				courses.DELETE("/:id", staff, h.Course.DeleteCourse)
				courses.POST("/:id/clone", staff, h.Course.CloneCourse)
				courses.GET("/:id/validation", staff, h.Course.ValidateCourse)

				courses.GET("/:id/activities", h.Activity.ListActivities)
				courses.POST("/:id/activities/:kind", staff, h.Activity.CreateActivity)

				courses.GET("/:id/rosters", staff, h.Roster.ListRosters)
				courses.POST("/:id/rosters", staff, h.Roster.ImportRosters)

				courses.GET("/:id/diversity", staff, h.Diversity.GetReport)
			}

			// 活动模块
			activities := authorized.Group("/activities")
			{
				activities.GET("/:kind/:id", h.Activity.GetActivity)
				activities.PUT("/:kind/:id", staff, h.Activity.UpdateActivity)
				activities.DELETE("/:kind/:id", staff, h.Activity.DeleteActivity)
			}

			authorized.GET("/projects/:id/availability", h.Activity.GetAvailability)

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/courses/:id", staff, h.Export.ExportCourse)
			}
		}
	}

	return r
}

// healthCheck 检查数据库与 Redis 连通性；Redis 未启用时只报告 disabled
func healthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"database": "ok", "redis": "disabled"}

		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				checks["database"] = "unavailable"
				status = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx); err != nil {
				checks["redis"] = "unavailable"
			}
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": checks})
	}
}
