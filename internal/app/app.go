package app

import (
	"context"
	"exam_center_backend/internal/config"
	"exam_center_backend/internal/controller"
	"exam_center_backend/internal/repository"
	"exam_center_backend/internal/service"
	"exam_center_backend/pkg/database"
	"exam_center_backend/pkg/logger"
	"exam_center_backend/pkg/monitoring"
	"exam_center_backend/pkg/security"
	"exam_center_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	mu       sync.RWMutex
	services *services
}

type repositories struct {
	user   *repository.UserRepository
	exam   *repository.ExamRepository
	answer *repository.ExamAnswerRepository
	result *repository.ExamResultRepository
	report *repository.ExamReportRepository
}

type services struct {
	auth      *service.AuthService
	storage   *service.StorageService
	answer    *service.ExamAnswerService
	analytics *service.ExamAnalyticsService
	report    *service.ReportService
}

type controllers struct {
	auth      *controller.AuthController
	exam      *controller.ExamController
	analytics *controller.AnalyticsController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:   repository.NewUserRepository(db),
		exam:   repository.NewExamRepository(db),
		answer: repository.NewExamAnswerRepository(db),
		result: repository.NewExamResultRepository(db),
		report: repository.NewExamReportRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.answer = service.NewExamAnswerService(repos.answer, repos.result, repos.exam, repos.user, cfg)
	s.analytics = service.NewExamAnalyticsService(
		repos.answer,
		repos.result,
		repos.exam,
		rdb,
		time.Duration(cfg.Grading.AnalyticsCacheMinutes)*time.Minute,
	)
	s.report = service.NewReportService(repos.result, repos.exam, repos.report, s.storage)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		exam:      controller.NewExamController(s.answer, s.report, repos.exam),
		analytics: controller.NewAnalyticsController(s.analytics),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, analytics caching disabled", zap.Error(err))
		rdb = nil
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("exam-center", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// ApplyConfig 配置热更新回调。只接管可以安全热替换的判分参数，
// 通过各服务自己的加锁入口下发；端口、限流、数据库连接等需重启生效
func (a *App) ApplyConfig(newCfg *config.Config) {
	a.mu.Lock()
	a.Config.Grading = newCfg.Grading
	a.mu.Unlock()

	if a.services != nil {
		if a.services.answer != nil {
			a.services.answer.ApplyGradingConfig(newCfg.Grading)
		}
		if a.services.analytics != nil {
			a.services.analytics.SetCacheTTL(time.Duration(newCfg.Grading.AnalyticsCacheMinutes) * time.Minute)
		}
	}

	logger.Log.Info("Config reloaded",
		zap.Float64("defaultQuestionWeight", newCfg.Grading.DefaultQuestionWeight),
		zap.Int("analyticsCacheMinutes", newCfg.Grading.AnalyticsCacheMinutes))
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
