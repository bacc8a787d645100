package handlers

import (
	"context"
	"time"

	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/config"
	"taskflow/backend/internal/middleware"
	"taskflow/backend/internal/monitoring"
	"taskflow/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RouterDeps gathers everything the HTTP surface needs. The caller owns the
// lifecycle of every dependency.
type RouterDeps struct {
	Config         *config.Config
	DB             *gorm.DB
	Cache          *cache.RedisCache
	AuthService    services.AuthService
	ProjectService services.ProjectService
	TaskService    services.TaskService
}

// NewRouter builds the full route tree under /api/v1.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.Use(monitoring.MetricsMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	health := monitoring.NewHealthChecker()
	health.Register("database", func(ctx context.Context) error {
		sqlDB, err := deps.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if deps.Cache != nil {
		health.Register("redis", func(ctx context.Context) error {
			return deps.Cache.Health()
		})
	}
	router.GET("/health", health.Handler())
	router.GET("/metrics", monitoring.MetricsHandler())

	authHandler := NewAuthHandler(deps.DB, deps.AuthService)
	projectHandler := NewProjectHandler(deps.DB, deps.ProjectService)
	taskHandler := NewTaskHandler(deps.DB, deps.TaskService)

	authRequired := middleware.Auth(deps.DB, deps.AuthService)

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	if deps.Config.RateLimit.Enabled {
		authLimiter := middleware.NewRateLimiter(
			deps.Config.RateLimit.AuthPerMin,
			deps.Config.RateLimit.AuthPerMin,
			deps.Config.RateLimit.CleanupInterval,
		)
		auth.POST("/register", authLimiter.Middleware(), authHandler.Register)
		auth.POST("/login", authLimiter.Middleware(), authHandler.Login)
	} else {
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	authProtected := v1.Group("/auth", authRequired)
	authProtected.POST("/logout", authHandler.Logout)
	authProtected.POST("/logout-all", authHandler.LogoutAll)
	authProtected.POST("/refresh", authHandler.Refresh)
	authProtected.GET("/me", authHandler.Me)

	v1.GET("/user", authRequired, authHandler.Me)

	projects := v1.Group("/projects", authRequired)
	projects.GET("", projectHandler.List)
	projects.POST("", projectHandler.Create)
	projects.GET("/statistics", projectHandler.Statistics)
	projects.GET("/search", projectHandler.Search)
	projects.GET("/status/:status", projectHandler.ByStatus)
	projects.GET("/overdue", projectHandler.Overdue)
	projects.POST("/bulk-update-status", projectHandler.BulkUpdateStatus)
	projects.GET("/:id", projectHandler.Get)
	projects.PUT("/:id", projectHandler.Update)
	projects.PATCH("/:id", projectHandler.Update)
	projects.DELETE("/:id", projectHandler.Delete)
	projects.POST("/:id/restore", projectHandler.Restore)
	projects.DELETE("/:id/force-delete", projectHandler.ForceDelete)
	projects.POST("/:id/duplicate", projectHandler.Duplicate)

	tasks := v1.Group("/tasks", authRequired)
	if deps.Config.RateLimit.Enabled {
		taskLimiter := middleware.NewRateLimiter(
			deps.Config.RateLimit.RequestsPerMin,
			deps.Config.RateLimit.BurstSize,
			deps.Config.RateLimit.CleanupInterval,
		)
		tasks.Use(taskLimiter.Middleware())
	}
	tasks.GET("", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.GET("/statistics", taskHandler.Statistics)
	tasks.GET("/search", taskHandler.Search)
	tasks.GET("/status/:status", taskHandler.ByStatus)
	tasks.GET("/overdue", taskHandler.Overdue)
	tasks.POST("/bulk-update-status", taskHandler.BulkUpdateStatus)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.PATCH("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)

	return router
}
