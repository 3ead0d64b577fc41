package main

//go:generate swag init -g cmd/api/main.go -o api/swagger --parseDependency --parseInternal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "contractbuilder/api/swagger" // swagger docs
	"contractbuilder/internal/ai"
	"contractbuilder/internal/audit"
	"contractbuilder/internal/config"
	"contractbuilder/internal/database"
	"contractbuilder/internal/handler"
	"contractbuilder/internal/middleware"
	"contractbuilder/internal/model"
	"contractbuilder/internal/notify"
	"contractbuilder/internal/pdf"
	"contractbuilder/internal/repository"
	"contractbuilder/internal/service"
	"contractbuilder/internal/storage"
	"contractbuilder/internal/token"
	"contractbuilder/internal/websocket"
	"contractbuilder/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           AEMCO Contract Builder API
// @version         1.0
// @description     Contract lifecycle management: templates, drafting, provider signing and audit.
// @host            localhost:3000
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(&logger.Config{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat})

	if err := run(cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	slog.Info("connected to PostgreSQL", "host", cfg.Database.Host, "database", cfg.Database.Name)

	if err := database.Seed(ctx, db, cfg.Seed); err != nil {
		return fmt.Errorf("database seed failed: %w", err)
	}

	// Redis backs token revocation and the shared rate limiter when enabled.
	var (
		redisClient redis.UniversalClient
		revocations token.RevocationStore = token.NewMemoryRevocationStore()
		limiter     middleware.Limiter
	)
	window := time.Duration(cfg.Server.RateLimitWindow) * time.Second
	if cfg.Redis.Enabled {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		revocations = token.NewRedisRevocationStore(redisClient)
		limiter = middleware.NewRedisRateLimiter(redisClient, cfg.Server.RateLimit, window)
		slog.Info("connected to redis", "addrs", cfg.Redis.Addrs)
	} else {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimit, window)
	}

	// WebSocket hub plus optional Kafka fan-out for contract events.
	hub := websocket.NewHub(cfg.Server.CORSOrigins)
	go hub.Run(ctx)

	publishers := notify.Multi{hub}
	if cfg.Kafka.Enabled {
		kafkaClient, err := notify.NewKafkaClient(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		kafka := notify.NewKafkaPublisher(kafkaClient, cfg.Kafka.Topic)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafka.Close(closeCtx); err != nil {
				slog.Warn("kafka flush failed", "error", err)
			}
		}()
		publishers = append(publishers, kafka)
		slog.Info("publishing contract events to kafka", "topic", cfg.Kafka.Topic)
	}

	var (
		files       storage.FileStore
		memoryFiles *storage.MemoryStore
	)
	if cfg.Minio.Enabled {
		minioStore, err := storage.NewMinioStore(cfg.Minio)
		if err != nil {
			return err
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			return err
		}
		files = minioStore
	} else {
		slog.Warn("minio disabled, uploads are kept in memory and served from /uploads")
		memoryFiles = storage.NewMemoryStore(fmt.Sprintf("http://localhost:%d/uploads", cfg.Server.Port))
		files = memoryFiles
	}

	// Repository -> Service -> Handler
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	contractRepo := repository.NewContractRepository(db)
	versionRepo := repository.NewContractVersionRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSink := audit.NewStoreSink(auditRepo)
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.TTL())
	renderer := pdf.NewRenderer()
	generator := ai.NewGeminiClient(cfg.Gemini.BaseURL, time.Duration(cfg.Gemini.Timeout)*time.Second)

	authService := service.NewAuthService(userRepo, tokens, revocations, auditSink)
	contractService := service.NewContractService(txManager, contractRepo, versionRepo, userRepo, templateRepo,
		settingsRepo, auditSink, publishers, renderer)
	providerService := service.NewProviderService(txManager, contractRepo, settingsRepo, auditSink, publishers, renderer)
	templateService := service.NewTemplateService(templateRepo, contractRepo, auditSink)
	userService := service.NewUserService(userRepo, contractRepo, auditSink)
	profileService := service.NewProfileService(userRepo, files, auditSink)
	settingsService := service.NewSettingsService(txManager, settingsRepo, files, auditSink)
	aiService := service.NewAIService(settingsRepo, generator, cfg.Gemini)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(repository.NewStatisticsRepository(db), userRepo)

	auth := middleware.NewAuthenticator(tokens, revocations, userRepo)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.AuditClient())
	if cfg.Server.RateLimit > 0 {
		router.Use(middleware.RateLimit(limiter))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader, "Content-Disposition"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	handler.NewHealthHandler(db, redisClient).RegisterRoutes(router)
	router.GET("/ws", auth.RequireRoleQuery(model.RoleAdmin), hub.Serve)
	if memoryFiles != nil {
		handler.NewUploadHandler(memoryFiles).RegisterRoutes(router)
	}

	api := router.Group("/api")
	handler.NewAuthHandler(authService, auth).RegisterRoutes(api)
	handler.NewContractHandler(contractService, auth).RegisterRoutes(api)
	handler.NewProviderHandler(providerService, auth).RegisterRoutes(api)
	handler.NewTemplateHandler(templateService, auth).RegisterRoutes(api)
	handler.NewUserHandler(userService, auth).RegisterRoutes(api)
	handler.NewProfileHandler(profileService, authService, auth).RegisterRoutes(api)
	handler.NewSettingsHandler(settingsService, auth).RegisterRoutes(api)
	handler.NewAIHandler(aiService, auth).RegisterRoutes(api)
	handler.NewAuditHandler(auditService, auth).RegisterRoutes(api)
	handler.NewStatisticsHandler(statisticsService, auth).RegisterRoutes(api)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.Server.Port, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited gracefully")
	return nil
}
