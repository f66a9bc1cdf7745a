package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/auth"
	"github.com/SebbyH09/VFPInventory.github.io/internal/cache"
	"github.com/SebbyH09/VFPInventory.github.io/internal/config"
	"github.com/SebbyH09/VFPInventory.github.io/internal/events"
	"github.com/SebbyH09/VFPInventory.github.io/internal/handlers"
	"github.com/SebbyH09/VFPInventory.github.io/internal/repository"
	"github.com/SebbyH09/VFPInventory.github.io/internal/service"
	"github.com/SebbyH09/VFPInventory.github.io/pkg/logger"
	"github.com/SebbyH09/VFPInventory.github.io/pkg/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Lab Inventory API
// @version         1.0
// @description     Inventory tracking for lab supplies: batch entry, consumption, cycle counts, order tracking and a full change ledger.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	appLogger := logger.New(cfg.Environment)
	defer appLogger.Sync()

	appLogger.Info("🚀 Starting Lab Inventory Service",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	appLogger.Info("💾 SQLite Configuration",
		zap.String("path", cfg.SQLitePath),
	)

	if cfg.UseCache {
		appLogger.Info("💾 Cache Configuration",
			zap.String("redis_host", cfg.RedisHost),
			zap.String("redis_port", cfg.RedisPort),
			zap.Int("cache_ttl", cfg.CacheTTL),
		)
	} else {
		appLogger.Info("💾 Cache Configuration",
			zap.Bool("enabled", false),
			zap.String("note", "Cache is disabled (USE_CACHE=false)"),
		)
	}

	if cfg.EventsEnabled {
		appLogger.Info("📡 Kafka Configuration",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic_items", cfg.KafkaTopicItems),
			zap.String("topic_stock", cfg.KafkaTopicStock),
		)
	} else {
		appLogger.Info("📡 Kafka Configuration",
			zap.Bool("enabled", false),
			zap.String("note", "Events are disabled (EVENTS_ENABLED=false)"),
		)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database
	appLogger.Info("🔧 Initializing database...")
	db, err := repository.NewSingleWriterDB(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("✅ Database initialized successfully")

	itemRepo := repository.NewSQLiteItemRepository(db, appLogger)
	historyRepo := repository.NewSQLiteHistoryRepository(db, appLogger)
	userRepo := repository.NewSQLiteUserRepository(db, appLogger)

	// Cache: Redis when enabled, in-memory fallback otherwise
	var cacheStore cache.Cache
	if cfg.UseCache {
		appLogger.Info("🔧 Initializing cache (Redis)...")
		cacheStore = cache.NewCache(cfg, appLogger)
		appLogger.Info("✅ Cache initialized successfully")
	} else {
		appLogger.Info("⏭️  Using in-memory cache (USE_CACHE=false)")
		cacheStore = cache.NewInMemoryCache(appLogger)
	}

	// Event publisher: Kafka when enabled, in-memory fallback otherwise
	var publisher events.EventPublisher
	if cfg.EventsEnabled {
		appLogger.Info("🔧 Initializing Kafka producer...")
		publisher, err = events.NewKafkaEventPublisher(cfg, appLogger)
		if err != nil {
			appLogger.Warn("Failed to initialize Kafka producer, events stay in memory", zap.Error(err))
			publisher = events.NewInMemoryEventPublisher(appLogger)
		} else {
			appLogger.Info("✅ Kafka producer initialized successfully")
		}
	} else {
		appLogger.Info("⏭️  Skipping Kafka producer (EVENTS_ENABLED=false)")
		publisher = events.NewInMemoryEventPublisher(appLogger)
	}

	// Service and handlers
	inventoryService := service.NewInventoryService(itemRepo, historyRepo, publisher, cacheStore, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, appLogger)
	authHandler := auth.NewAuthHandler(userRepo, jwtManager, appLogger)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, itemRepo, cacheStore, cfg.CacheTTL, appLogger)
	consumeHandler := handlers.NewConsumeHandler(inventoryService, itemRepo, cacheStore, cfg.CacheTTL, appLogger)
	historyHandler := handlers.NewHistoryHandler(historyRepo, itemRepo, appLogger)
	dashboardHandler := handlers.NewDashboardHandler(itemRepo, cacheStore, cfg.CacheTTL, appLogger)
	uploadHandler := handlers.NewUploadHandler(inventoryService, appLogger)

	// Router and middleware chain
	router := gin.New()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RecoveryHandler(appLogger))
	router.Use(logger.GinMiddleware(appLogger))
	router.Use(middleware.RequestIDMiddleware(appLogger))
	router.Use(middleware.ErrorHandler(appLogger))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public endpoints
	router.GET("/health", healthCheck)
	router.POST("/registration", authHandler.Register)
	router.POST("/login", authHandler.Login)

	// Protected endpoints
	protected := router.Group("")
	protected.Use(middleware.AuthMiddleware(jwtManager, appLogger))
	{
		entry := protected.Group("/entry")
		{
			entry.POST("", inventoryHandler.SaveEntries)
			entry.GET("/items", inventoryHandler.ListItems)
			entry.DELETE("/:id", inventoryHandler.DeleteItem)
			entry.POST("/mark-used", inventoryHandler.MarkUsed)
			entry.POST("/record-order", inventoryHandler.RecordOrder)
			entry.POST("/cycle-count", inventoryHandler.CycleCount)
			entry.POST("/update-cycle-count", inventoryHandler.UpdateCycleCount)
		}

		consume := protected.Group("/consume")
		{
			consume.POST("", consumeHandler.Consume)
			consume.GET("/items", consumeHandler.ListItems)
		}

		history := protected.Group("/history")
		{
			history.GET("/data", historyHandler.Query)
			history.GET("/summary", historyHandler.Summarize)
			history.GET("/items", historyHandler.ListItems)
		}

		dashboard := protected.Group("/dashboard")
		{
			dashboard.GET("/cycle-counts", dashboardHandler.CycleCounts)
			dashboard.GET("/low-stock", dashboardHandler.LowStock)
		}

		protected.POST("/upload", uploadHandler.Upload)
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		appLogger.Info("🌐 Starting HTTP server",
			zap.String("address", ":"+cfg.Port),
			zap.String("swagger_url", "http://localhost:"+cfg.Port+"/swagger/index.html"),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exited")
}

// healthCheck godoc
// @Summary      Health check endpoint
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "inventory-service",
	})
}
