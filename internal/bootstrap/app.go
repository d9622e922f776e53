package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"costume-swap/internal/infra/inference"
	gormpersistence "costume-swap/internal/infra/persistence/gorm"
	"costume-swap/internal/infra/persistence/jsonfile"
	"costume-swap/internal/infra/setup"
	redisstate "costume-swap/internal/infra/state/redis"
	"costume-swap/internal/infra/storage/local"
	miniostore "costume-swap/internal/infra/storage/minio"
	"costume-swap/internal/repository"
	"costume-swap/internal/service"
	"costume-swap/internal/tasks"
	"costume-swap/internal/worker"
)

// App 结构体包含应用的所有组件和配置
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB      // STORE_DRIVER=mysql 时非空
	RedisClient *redis.Client // 配置 REDIS_ADDR 时非空
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	HttpServer  *http.Server
}

// repositories 是按存储驱动选出的存储库
type repositories struct {
	users       repository.UserRepository
	feedbacks   repository.FeedbackRepository
	generations repository.GenerationRepository
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := NewLogger(cfg)
	log.Info("Configuration loaded successfully")

	app := &App{Config: cfg, Log: log}
	ctx := context.Background()

	// 3. 初始化基础设施
	log.Infof("Initializing repositories (driver: %s)...", cfg.StoreDriver)
	repos, err := app.initRepositories()
	if err != nil {
		return nil, err
	}

	resultStore, err := app.initResultStore(ctx)
	if err != nil {
		return nil, err
	}
	log.Infof("Result store initialized (driver: %s)", cfg.ResultsDriver)

	var (
		sessions repository.SessionStateRepository
		enqueuer service.GenerationEnqueuer
	)
	if cfg.RedisEnabled() {
		redisClient, err := setup.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
		app.RedisClient = redisClient
		sessions = redisstate.NewRedisSessionStateRepository(redisClient, cfg.Redis.KeyPrefix)

		app.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		enqueuer = tasks.NewEnqueuer(app.AsynqClient)
		log.Info("Redis and Asynq client initialized")
	} else {
		log.Warn("REDIS_ADDR not set: session revocation, rate limiting and background tasks are disabled")
	}

	inferenceClient, err := inference.NewClient(inference.Config{
		BaseURL:       cfg.Inference.URL,
		ModelRoot:     cfg.Inference.ModelRoot,
		DetectorModel: cfg.Inference.DetectorModel,
		SwapperModel:  cfg.Inference.SwapperModel,
		DetSize:       cfg.Inference.DetSize,
		Timeout:       cfg.Inference.Timeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference client: %w", err)
	}
	log.Infof("Inference client initialized (%s)", cfg.Inference.URL)

	// 4. 初始化 Services
	log.Info("Initializing services...")
	authService, err := service.NewAuthService(repos.users, sessions, cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	historyService := service.NewHistoryService(repos.generations, enqueuer)
	feedbackService := service.NewFeedbackService(repos.feedbacks)
	generateService := service.NewGenerateService(inferenceClient, inferenceClient, resultStore, historyService, service.GenerateConfig{
		Concurrency: cfg.GenerateConcurrency,
		JPEGQuality: cfg.ResultJPEGQuality,
	})
	log.Info("Services initialized")

	// 5. 初始化 Worker Server
	if cfg.RedisEnabled() {
		app.AsynqServer = worker.NewWorkerServer(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, historyService, cfg.WorkerConcurrency, log)
		log.Info("Worker server initialized")
	}

	// 6. 初始化 Gin Engine 和路由
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router, err := NewRouter(RouterDeps{
		Config:          cfg,
		Log:             log,
		AuthService:     authService,
		Generator:       generateService,
		FeedbackService: feedbackService,
		HistoryService:  historyService,
		ResultStore:     resultStore,
		RedisClient:     app.RedisClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	log.Info("Router setup complete")

	// 7. 初始化 HTTP Server
	app.HttpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// 生成请求包含推理调用，写超时要覆盖推理超时
		WriteTimeout: cfg.Inference.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Info("Application assembled successfully")
	return app, nil
}

// NewLogger 按配置创建 logrus Logger
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	// 业务代码使用包级 logrus，保持与 App 一致的格式和级别
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)

	log.Infof("Logger initialized (Level: %s, Format: %T)", level.String(), log.Formatter)
	return log
}

func (a *App) initRepositories() (*repositories, error) {
	cfg := a.Config
	if cfg.StoreDriver == StoreDriverMySQL {
		db, err := setup.InitDB(setup.DBConfig{
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			Name:     cfg.DB.Name,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init DB: %w", err)
		}
		if err := setup.MigrateDB(db); err != nil {
			return nil, fmt.Errorf("failed to migrate DB: %w", err)
		}
		a.DB = db
		a.Log.Info("Database initialized and migrated")
		return &repositories{
			users:       gormpersistence.NewGormUserRepository(db),
			feedbacks:   gormpersistence.NewGormFeedbackRepository(db),
			generations: gormpersistence.NewGormGenerationRepository(db),
		}, nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	users, err := jsonfile.NewUserRepository(filepath.Join(cfg.DataDir, "users.json"))
	if err != nil {
		return nil, err
	}
	feedbacks, err := jsonfile.NewFeedbackRepository(filepath.Join(cfg.DataDir, "feedback.json"))
	if err != nil {
		return nil, err
	}
	generations, err := jsonfile.NewGenerationRepository(filepath.Join(cfg.DataDir, "generations.json"))
	if err != nil {
		return nil, err
	}
	a.Log.Infof("JSON file stores ready in %s", cfg.DataDir)
	return &repositories{users: users, feedbacks: feedbacks, generations: generations}, nil
}

func (a *App) initResultStore(ctx context.Context) (repository.ResultStore, error) {
	cfg := a.Config
	if cfg.ResultsDriver == ResultsDriverMinio {
		store, err := miniostore.NewStore(ctx, miniostore.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init MinIO result store: %w", err)
		}
		return store, nil
	}
	store, err := local.NewStore(cfg.ResultsDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Start 启动后台 Worker 和 HTTP 服务器
func (a *App) Start() {
	if a.AsynqServer != nil {
		go a.AsynqServer.Start()
		a.Log.Info("Asynq worker server routine started")
	}

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 先停止接收新请求，等待进行中的生成完成
	a.Log.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Inference.Timeout+10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 2. 关闭 Worker Server，处理完已入队的历史记录
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	// 3. 关闭 Asynq Client
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		} else {
			a.Log.Info("Asynq client closed.")
		}
	}

	// 4. 关闭 Redis 连接
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	// 5. 关闭数据库连接
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("Error closing database connection: %v", err)
			} else {
				a.Log.Info("Database connection closed.")
			}
		}
	}

	a.Log.Info("Application shutdown complete.")
}
