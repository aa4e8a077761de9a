package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/shelfsight/backend/internal/api/handlers"
	"github.com/shelfsight/backend/internal/cache/redis"
	"github.com/shelfsight/backend/internal/catalog"
	"github.com/shelfsight/backend/internal/detection"
	"github.com/shelfsight/backend/internal/metrics"
	"github.com/shelfsight/backend/internal/middleware/ratelimit"
	"github.com/shelfsight/backend/internal/middleware/security"
	"github.com/shelfsight/backend/internal/middleware/validation"
	"github.com/shelfsight/backend/internal/runs"
	"github.com/shelfsight/backend/internal/session"
	"github.com/shelfsight/backend/internal/storage/sqlite"
	"github.com/shelfsight/backend/internal/vision"
	"github.com/shelfsight/backend/pkg/config"
	appLogger "github.com/shelfsight/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Shelf-Sight API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Missing vision credentials abort startup: no detection can succeed
	// without them.
	visionClient, err := vision.NewClient(
		cfg.Vision.APIKey,
		cfg.Vision.BaseURL,
		cfg.Vision.Model,
		cfg.Vision.Temperature,
		cfg.Vision.MaxTokens,
		cfg.Vision.TimeoutSec,
	)
	if err != nil {
		appLogger.Fatal("Failed to create vision client", zap.Error(err))
	}

	var historyCache runs.HistoryCache
	redisClient, err := redis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		time.Duration(cfg.Redis.TTLSec)*time.Second,
	)
	if err != nil {
		appLogger.Warn("Redis unavailable, history cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		historyCache = redisClient
	}

	feedClient := catalog.NewFeedClient(
		cfg.Inventory.BaseURL,
		cfg.Inventory.APIKey,
		time.Duration(cfg.Inventory.TimeoutSec)*time.Second,
	)

	detector := detection.NewDetector(visionClient)
	service := runs.NewService(sqliteClient, historyCache, detector)
	sessions := session.NewRegistry()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		Logger: appLogger.GetLogger(),
	})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Session-ID",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		MaxImageSizeMB:    cfg.Upload.MaxSizeMB,
		AllowedExtensions: cfg.Upload.AllowedTypes,
		Logger:            appLogger.GetLogger(),
	}))

	analysisHandler := handlers.NewAnalysisHandler(service, feedClient, sessions)
	runsHandler := handlers.NewRunsHandler(service, sessions)
	catalogHandler := handlers.NewCatalogHandler(feedClient, sessions)

	api := app.Group("/api/v1")

	api.Post("/analyze", analysisHandler.HandleAnalyze)
	api.Get("/runs", runsHandler.GetRuns)
	api.Get("/catalog", catalogHandler.GetCatalog)
	api.Delete("/session", runsHandler.EndSession)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
