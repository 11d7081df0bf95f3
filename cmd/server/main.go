package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/onegreenvn/campaign-builder-backend/docs"
	"github.com/onegreenvn/campaign-builder-backend/internal/catalog"
	"github.com/onegreenvn/campaign-builder-backend/internal/config"
	"github.com/onegreenvn/campaign-builder-backend/internal/database"
	"github.com/onegreenvn/campaign-builder-backend/internal/database/repository"
	"github.com/onegreenvn/campaign-builder-backend/internal/gateway"
	"github.com/onegreenvn/campaign-builder-backend/internal/metrics"
	"github.com/onegreenvn/campaign-builder-backend/internal/middleware"
	"github.com/onegreenvn/campaign-builder-backend/internal/router"
	"github.com/onegreenvn/campaign-builder-backend/internal/services"
	"github.com/onegreenvn/campaign-builder-backend/internal/services/excel"
	"github.com/onegreenvn/campaign-builder-backend/internal/session"
	"github.com/onegreenvn/campaign-builder-backend/internal/utils"
)

// @title Campaign Builder API
// @version 1.0
// @description Multi-tenant campaign canvas, wizard and generation gateway

// @contact.name API Support
// @contact.email support@one-green.io

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter `Bearer ` followed by your JWT token (e.g. "Bearer <token>")

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	docs.SwaggerInfo.BasePath = cfg.BasePath

	configureLogging(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET is required")
	}
	if cfg.Gateway.URL == "" {
		logrus.Fatal("GATEWAY_URL is required")
	}

	if err := utils.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		logrus.Warnf("Failed to initialize Sentry: %v", err)
	}

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	m := metrics.New()

	// Session cache: redis when configured, in-process otherwise
	var cache session.Cache
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := session.NewRedisCache(ctx, session.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cancel()
		if err != nil {
			logrus.Warnf("Failed to connect to Redis, autosave stays in memory: %v", err)
			cache = session.NewMemoryCache()
		} else {
			logrus.Info("Redis session cache initialized")
			defer redisCache.Close()
			cache = redisCache
		}
	} else {
		logrus.Info("REDIS_ADDR not set, autosave stays in memory")
		cache = session.NewMemoryCache()
	}

	sseHub := services.NewSSEHub()

	// Initialize RabbitMQ service
	var publisher services.EventPublisher
	rabbitMQService, err := services.NewRabbitMQService(cfg.RabbitMQ)
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ: %v", err)
	} else {
		logrus.Info("RabbitMQ service initialized")
		defer rabbitMQService.Close()
		publisher = rabbitMQService
	}

	cat, err := catalog.Load()
	if err != nil {
		logrus.Fatalf("Failed to load module catalog: %v", err)
	}

	campaignRepo := repository.NewCampaignRepository(db)
	generationLogRepo := repository.NewGenerationLogRepository(db)

	catalogService := services.NewCatalogService(
		cat,
		repository.NewOrganizationRepository(db),
		repository.NewProductRepository(db),
		repository.NewPersonaRepository(db),
		repository.NewContentModuleRepository(db),
	)
	campaignService := services.NewCampaignService(campaignRepo)
	generationService := services.NewGenerationService(
		gateway.NewClient(cfg.Gateway.URL, cfg.Gateway.Timeout, gateway.WithMetrics(m)),
		generationLogRepo,
		publisher,
	)
	editorService := services.NewEditorService(services.EditorDeps{
		Catalog:     catalogService,
		Live:        catalogService,
		Campaigns:   campaignService,
		Generations: generationService,
		Hub:         sseHub,
		Cache:       cache,
		Metrics:     m,
		AutosaveTTL: cfg.Redis.TTL,
	})

	if rabbitMQService != nil {
		assetConsumer := services.NewAssetConsumer(rabbitMQService, editorService, generationService)
		if err := assetConsumer.Start(); err != nil {
			logrus.Warnf("Failed to start RabbitMQ asset consumer: %v", err)
		} else {
			logrus.Info("RabbitMQ asset consumer started")
			defer assetConsumer.Stop()
		}
	}

	sweeper := services.NewSessionSweeper(editorService, sseHub, cfg.SessionIdleTimeout)
	sweeper.SetInterval(cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rateLimiter.Cleanup()
			case <-stopCleanup:
				return
			}
		}
	}()
	defer close(stopCleanup)

	gin.SetMode(gin.ReleaseMode)
	r := router.SetupRouter(router.Dependencies{
		Editor:      editorService,
		Catalog:     catalogService,
		Campaigns:   campaignService,
		Generations: generationLogRepo,
		SSEHub:      sseHub,
		Exporter:    excel.NewBriefExporter(),
		Metrics:     m,
		RateLimiter: rateLimiter,
		JWTSecret:   cfg.JWTSecret,
	})

	// Configure HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", cfg.Port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging(logLevel string) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
