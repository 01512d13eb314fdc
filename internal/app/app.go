package app

import (
	"context"
	"library_portal_backend/internal/config"
	"library_portal_backend/internal/controller"
	"library_portal_backend/internal/repository"
	"library_portal_backend/internal/service"
	"library_portal_backend/pkg/archive"
	"library_portal_backend/pkg/cache"
	"library_portal_backend/pkg/configwatcher"
	"library_portal_backend/pkg/database"
	"library_portal_backend/pkg/logger"
	"library_portal_backend/pkg/monitoring"
	"library_portal_backend/pkg/security"
	"library_portal_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigPath      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	stop            chan struct{}
}

type repositories struct {
	user            *repository.UserRepository
	resource        *repository.ResourceRepository
	bookmark        *repository.BookmarkRepository
	activity        *repository.ActivityRepository
	readingProgress *repository.ReadingProgressRepository
}

type services struct {
	identity        *service.IdentityService
	activity        *service.ActivityService
	readingProgress *service.ReadingProgressService
	recommendation  *service.RecommendationService
	dashboard       *service.DashboardService
	retention       *service.ActivityRetentionService
}

type controllers struct {
	activity        *controller.ActivityController
	readingProgress *controller.ReadingProgressController
	recommendation  *controller.RecommendationController
	dashboard       *controller.DashboardController
	resource        *controller.ResourceController
	retention       *controller.RetentionController
	health          *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func dashboardPolicy(p config.PersonalizationConfig) service.DashboardPolicy {
	return service.DashboardPolicy{
		ReadTimeout:         p.DashboardReadTimeout,
		RecommendationLimit: p.RecommendationLimit,
		AllowPartial:        p.DashboardPolicy == config.DashboardPolicyPartial,
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:            repository.NewUserRepository(db),
		resource:        repository.NewResourceRepository(db),
		bookmark:        repository.NewBookmarkRepository(db),
		activity:        repository.NewActivityRepository(db),
		readingProgress: repository.NewReadingProgressRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, pages cache.PageCache, archiver archive.Archiver) *services {
	p := cfg.Personalization
	s := &services{}

	s.identity = service.NewIdentityService(repos.user)
	s.activity = service.NewActivityService(repos.activity, p.ActivityWriteTimeout)
	s.readingProgress = service.NewReadingProgressService(repos.readingProgress, pages)
	s.recommendation = service.NewRecommendationService(repos.resource, repos.readingProgress, p)
	s.dashboard = service.NewDashboardService(
		repos.activity,
		repos.readingProgress,
		repos.bookmark,
		s.recommendation,
		dashboardPolicy(p),
	)
	s.retention = service.NewActivityRetentionService(repos.activity, archiver, p.ActivityRetentionDays, p.ArchiveBatchSize)

	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.dashboard.SetPolicy(dashboardPolicy(cfg.Personalization))
		s.recommendation.SetRatingThreshold(cfg.Personalization.RatingThreshold)
		logger.Log.Info("personalization settings reloaded",
			zap.String("dashboard_policy", cfg.Personalization.DashboardPolicy),
			zap.Float64("rating_threshold", cfg.Personalization.RatingThreshold),
		)
	})

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, pages cache.PageCache) *controllers {
	p := a.Config.Personalization
	return &controllers{
		activity:        controller.NewActivityController(s.activity, s.identity),
		readingProgress: controller.NewReadingProgressController(s.readingProgress, s.identity),
		recommendation:  controller.NewRecommendationController(s.recommendation, s.identity, p.DiagnosticLimit),
		dashboard:       controller.NewDashboardController(s.dashboard, s.identity, pages, p.DashboardCacheTTL),
		resource:        controller.NewResourceController(repos.resource, s.activity, s.identity),
		retention:       controller.NewRetentionController(s.retention),
		health:          controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	if s.retention.RetentionDays > 0 {
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-a.stop:
					return
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
					if _, err := s.retention.RunOnce(ctx); err != nil {
						logger.Log.Error("activity retention run failed", zap.Error(err))
					}
					cancel()
				}
			}
		}()
	}

	if a.ConfigPath != "" {
		go configwatcher.WatchConfig(filepath.Join(a.ConfigPath, "config.yaml"), a.stop, a.applyConfig)
	}
}

func initPageCache(cfg *config.Config) (cache.PageCache, *redis.Client) {
	if !cfg.Redis.Enabled {
		return cache.NoopPageCache{}, nil
	}
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 页面缓存是可选的，连接失败时退化为不缓存
		logger.Log.Error("Failed to initialize redis, page cache disabled", zap.Error(err))
		return cache.NoopPageCache{}, nil
	}
	return cache.NewRedisPageCache(rdb), rdb
}

func NewApp(cfg *config.Config, configPath string) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config:     cfg,
		ConfigPath: configPath,
		DB:         db,
		stop:       make(chan struct{}),
	}
	if cfg.MigrateOnly {
		return app
	}

	pages, rdb := initPageCache(cfg)
	app.Redis = rdb

	archiver, err := archive.New(&cfg.Storage)
	if err != nil {
		logger.Log.Fatal("Failed to initialize activity archive", zap.Error(err))
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, pages, archiver)
	app.services = services
	controllers := app.initControllers(services, repos, db, pages)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)
	app.startBackgroundTasks(services)

	return app
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

	close(a.stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
