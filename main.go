package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"health-vault-server/internal/config"
	"health-vault-server/internal/logger"
	"health-vault-server/internal/metrics"
	"health-vault-server/internal/middleware"
	"health-vault-server/internal/models"
	"health-vault-server/internal/routes"
	"health-vault-server/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer appLogger.Sync()

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		appLogger.Fatal("Error connecting to database", zap.Error(err))
	}

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	// Attachment storage is optional; a nil uploader disables uploads.
	uploader, err := storage.NewUploader(context.Background(), cfg.Storage)
	if err != nil {
		appLogger.Fatal("Error initializing attachment storage", zap.Error(err))
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.MetricsMiddleware(collector))

	// Set up routes - passing dependencies to let routes.go create the handlers
	routes.SetupRoutes(router, db, cfg, collector, appLogger, uploader)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	appLogger.Info("Server starting", zap.String("port", cfg.Port))
	if err := router.Run(serverAddr); err != nil {
		appLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
