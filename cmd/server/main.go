package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/config"
	"taskflow/backend/internal/database"
	"taskflow/backend/internal/handlers"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/services"
	"taskflow/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	redisCache := cache.NewRedisCache(&cache.Config{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err := redisCache.Health(); err != nil {
		logger.Warn("redis unavailable, statistics caching disabled", zap.Error(err))
		redisCache.Close()
		redisCache = nil
	}
	if redisCache != nil {
		defer redisCache.Close()
	}

	taskRepo := repositories.NewTaskRepository()
	observer := services.NewTaskLogObserver(logger)

	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.BCryptCost, logger)
	projectService := services.NewProjectService(logger, redisCache)
	taskService := services.NewTaskService(taskRepo, logger, redisCache, observer)

	var bgWorker *worker.Worker
	if cfg.Worker.Enabled && redisCache != nil {
		bgWorker = worker.NewWorker(worker.Config{
			RedisClient: redisCache.Client(),
			Logger:      logger,
			Queues:      cfg.Worker.Queues,
		})
		bgWorker.RegisterHandler(worker.JobTypeTokenCleanup, worker.TokenCleanupHandler(db, logger))
		bgWorker.RegisterHandler(worker.JobTypeTaskReminder, worker.TaskReminderHandler(db, logger))
		bgWorker.Start(cfg.Worker.Concurrency)

		queue := worker.NewJobQueue(redisCache.Client())
		if err := worker.ScheduleRecurring(queue, worker.JobTypeTokenCleanup, time.Hour); err != nil {
			logger.Warn("failed to schedule token cleanup", zap.Error(err))
		}
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:         cfg,
		DB:             db,
		Cache:          redisCache,
		AuthService:    authService,
		ProjectService: projectService,
		TaskService:    taskService,
	})

	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	if bgWorker != nil {
		bgWorker.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
