package app

import (
	"context"
	"excel_interview_backend/internal/config"
	"excel_interview_backend/internal/controller"
	"excel_interview_backend/internal/middleware"
	"excel_interview_backend/internal/repository"
	"excel_interview_backend/internal/service"
	"excel_interview_backend/pkg/configwatcher"
	"excel_interview_backend/pkg/database"
	"excel_interview_backend/pkg/logger"
	"excel_interview_backend/pkg/monitoring"
	"excel_interview_backend/pkg/security"
	"excel_interview_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	session    *repository.InterviewRepository
	message    *repository.MessageRepository
	question   *repository.QuestionRepository
	evaluation *repository.EvaluationRepository
}

type services struct {
	auth      *service.AuthService
	storage   *service.StorageService
	interview *service.InterviewService
	template  *service.TemplateService
}

type controllers struct {
	auth      *controller.AuthController
	interview *controller.InterviewController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		session:    repository.NewInterviewRepository(db),
		message:    repository.NewMessageRepository(db),
		question:   repository.NewQuestionRepository(db),
		evaluation: repository.NewEvaluationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.storage = service.NewStorageService(cfg)
	s.template = service.NewTemplateService(cfg.Upload.TempDir)

	evaluator := service.NewEvaluationService(cfg.AI)
	inspector := service.NewExcelService()

	s.interview = service.NewInterviewService(
		repos.session,
		repos.message,
		repos.question,
		repos.evaluation,
		evaluator,
		inspector,
		s.storage,
		db,
		rdb,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		interview: controller.NewInterviewController(s.interview, s.template, a.Config),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// identityResolver picks the strategy the whole route layer runs under.
func (a *App) identityResolver(cfg *config.Config, db *gorm.DB) middleware.IdentityResolver {
	if cfg.Auth.Mode == "demo" {
		demoUser, err := database.SeedDemoUser(db, cfg.Auth.DemoEmail)
		if err != nil {
			logger.Log.Fatal("Failed to seed demo user", zap.Error(err))
		}
		logger.Log.Info("Running in demo auth mode", zap.String("email", demoUser.Email))
		return middleware.DemoIdentity(demoUser)
	}
	return middleware.JWTIdentity(cfg)
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 没有Redis也能跑，只是失去并发回合保护
		logger.Log.Warn("Redis unavailable, turn locking disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()
	router.MaxMultipartMemory = int64(cfg.Upload.MaxSizeMB) << 20
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("excel-interview", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	resolver := app.identityResolver(cfg, db)
	app.registerRoutes(router, controllers, repos, resolver)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// 热加载：上传限制按请求读取，改完配置文件即生效
	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		app.Config.Upload = newCfg.Upload
		logger.Log.Info("Config reloaded")
		for _, cb := range app.configCallbacks {
			cb(newCfg)
		}
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

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
