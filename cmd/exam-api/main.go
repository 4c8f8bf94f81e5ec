package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/exam-records-api/api/swagger"
	"github.com/noah-isme/exam-records-api/internal/handler"
	"github.com/noah-isme/exam-records-api/internal/middleware"
	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/internal/repository"
	"github.com/noah-isme/exam-records-api/internal/service"
	"github.com/noah-isme/exam-records-api/pkg/cache"
	"github.com/noah-isme/exam-records-api/pkg/config"
	"github.com/noah-isme/exam-records-api/pkg/database"
	"github.com/noah-isme/exam-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/exam-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/exam-records-api/pkg/middleware/requestid"
)

const shutdownTimeout = 15 * time.Second

// @title Exam Records API
// @version 1.0.0
// @description Examination records for class teachers and examination officers
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB, database.MigrateUp); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	var sessions service.SessionStore = repository.NewMemorySessionRepository()
	if cfg.Session.Backend == config.SessionBackendRedis && redisClient != nil {
		sessions = repository.NewRedisSessionRepository(redisClient, cfg.Session.KeyPrefix)
	}
	if cfg.Env == config.EnvProduction && cfg.Session.Secret == "dev_session_secret" {
		logr.Warn("SESSION_SECRET left at its development default")
	}

	classes := models.ParseClassLevels(cfg.ClassLevels)
	validate := validator.New()

	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	resultRepo := repository.NewResultRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, "exam:cache:", logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled)

	authSvc := service.NewAuthService(teacherRepo, sessions, validate, logr, service.AuthConfig{
		SessionSecret: cfg.Session.Secret,
		SessionTTL:    cfg.Session.TTL,
		Issuer:        "exam-records-api",
	})
	studentSvc := service.NewStudentService(studentRepo, teacherRepo, cacheSvc, classes, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, cacheSvc, validate, logr)
	resultSvc := service.NewResultService(resultRepo, studentRepo, subjectRepo, cacheSvc, metricsSvc, validate, logr)
	reportSvc := service.NewReportService(resultRepo, cacheSvc, classes, logr)
	dashboardSvc := service.NewDashboardService(studentSvc, resultSvc, reportSvc, logr)

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.Session(authSvc, cfg.Session.CookieName))

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth: handler.NewAuthHandler(authSvc, metricsSvc, handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.SecureCookie,
		}),
		Students:  handler.NewStudentHandler(studentSvc),
		Subjects:  handler.NewSubjectHandler(subjectSvc),
		Results:   handler.NewResultHandler(resultSvc, reportSvc),
		Reports:   handler.NewReportHandler(reportSvc),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Metrics:   handler.NewMetricsHandler(metricsSvc, checks),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "classes", cfg.ClassLevels)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
