package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"product-import-service/internal/clients"
	"product-import-service/internal/config"
	"product-import-service/internal/events"
	"product-import-service/internal/handlers"
	"product-import-service/internal/importer"
	"product-import-service/internal/metrics"
	"product-import-service/internal/middleware"
	"product-import-service/internal/repository"
)

// @title Product Import API
// @version 1.0.0
// @description Bulk product import service with multi-tenant support
// @termsOfService http://swagger.io/terms/

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8088
// @BasePath /api/v1

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (progress caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repositories
	importRepo := repository.NewImportRepository(db, redisClient)
	catalogRepo := repository.NewCatalogRepository(db)

	// Initialize event publisher for audit trail only if NATS_URL is set
	var eventsPublisher importer.EventPublisher
	if cfg.NATSUrl != "" {
		publisher, err := events.NewPublisher(logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
			eventsPublisher = publisher
			defer publisher.Close()
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}

	// Initialize clients. Development runs standalone with local storage
	// and a fixed fiscal regime; deployed environments talk to the real
	// storage and tenants services.
	var storageClient importer.StorageClient
	if cfg.StorageServiceURL != "" {
		storageClient = clients.NewStorageServiceClient()
	} else {
		localStorage, err := clients.NewLocalStorageClient()
		if err != nil {
			log.Fatal("Failed to initialize local storage:", err)
		}
		storageClient = localStorage
		log.Println("STORAGE_SERVICE_URL not set, using local file storage")
	}

	var tenantClient importer.TenantClient
	if cfg.TenantsServiceURL != "" {
		tenantClient = clients.NewTenantsClient()
	} else {
		staticTenants, err := clients.NewStaticTenantClient()
		if err != nil {
			log.Fatal("Failed to initialize static tenant client:", err)
		}
		tenantClient = staticTenants
		log.Println("TENANTS_SERVICE_URL not set, using DEFAULT_FISCAL_REGIME for all tenants")
	}

	// Initialize import service and handlers
	importService := importer.NewService(importRepo, catalogRepo, storageClient, tenantClient, eventsPublisher, logger)
	importHandler := handlers.NewImportHandler(importService, importRepo, cfg)
	healthHandler := handlers.NewHealthHandler(db)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Health check and metrics endpoints (no auth required)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/metrics", metrics.Handler())

	// Protected API routes
	api := router.Group("/api/v1")
	api.Use(middleware.DevelopmentAuthMiddleware())
	api.Use(middleware.TenantMiddleware())

	v1 := api.Group("")
	{
		products := v1.Group("/products")
		{
			products.POST("/import", importHandler.StartImport)
			products.GET("/import/template", importHandler.GetImportTemplate)

			imports := products.Group("/imports")
			{
				imports.GET("", importHandler.ListImports)
				imports.GET("/:id", importHandler.GetImport)
				imports.GET("/:id/progress", importHandler.GetImportProgress)
				imports.POST("/:id/cancel", importHandler.CancelImport)
				imports.POST("/:id/reprocess", importHandler.ReprocessImport)
				imports.DELETE("/:id", importHandler.DeleteImport)
			}
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Product import service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down product-import-service...")

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}
	log.Println("Shutdown complete")
}
