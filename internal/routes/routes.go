package routes

import (
	"health-vault-server/internal/ai"
	"health-vault-server/internal/config"
	"health-vault-server/internal/handlers"
	"health-vault-server/internal/metrics"
	"health-vault-server/internal/middleware"
	"health-vault-server/internal/models"
	"health-vault-server/internal/repository"
	"health-vault-server/internal/services"
	"health-vault-server/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, collector *metrics.Collector, log *zap.Logger, uploader *storage.Uploader) {
	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	shareRepo := repository.NewShareRepository(db)

	connectionService := services.NewConnectionService(connectionRepo, userRepo, collector, log)
	recordService := services.NewRecordService(recordRepo, connectionService, collector, log)
	shareService := services.NewShareService(shareRepo, recordRepo, collector, log)
	insightService := services.NewInsightService(recordRepo, userRepo, connectionService, ai.NewClient(cfg.AI, log), collector, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(db, cfg, recordService)
	userHandler := handlers.NewUserHandler(db)
	connectionHandler := handlers.NewConnectionHandler(connectionService)
	recordHandler := handlers.NewHealthRecordHandler(recordService, uploader)
	shareHandler := handlers.NewShareHandler(shareService, cfg)
	insightHandler := handlers.NewInsightHandler(insightService)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}

		// Share resolution is anonymous by design: the token is the credential.
		public.GET("/share/:shareId", shareHandler.ResolveShareLink)
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		userRoutes := private.Group("/users")
		{
			// Directory listing for patients picking a doctor
			userRoutes.GET("/doctors", userHandler.GetDoctors)

			// Doctors search patients by exact email before requesting access
			userRoutes.GET("/patients/search", middleware.RoleAuthMiddleware(models.RoleDoctor), userHandler.SearchPatients)
		}

		connectionRoutes := private.Group("/connections")
		{
			connectionRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor), connectionHandler.RequestConnection)
			connectionRoutes.PATCH("/:id", middleware.RoleAuthMiddleware(models.RolePatient), connectionHandler.ResolveConnection)
			connectionRoutes.GET("/pending", connectionHandler.ListPendingConnections)
			connectionRoutes.GET("/approved", connectionHandler.ListApprovedConnections)
		}

		recordRoutes := private.Group("/health-records")
		{
			recordRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), recordHandler.CreateHealthRecord)
			recordRoutes.GET("", middleware.RoleAuthMiddleware(models.RolePatient), recordHandler.GetMyHealthRecords)
			recordRoutes.GET("/patient/:patientId", middleware.RoleAuthMiddleware(models.RoleDoctor), recordHandler.GetPatientHealthRecords)
			recordRoutes.POST("/attachments", middleware.RoleAuthMiddleware(models.RolePatient), recordHandler.UploadAttachment)
		}

		shareRoutes := private.Group("/share-links")
		{
			shareRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), shareHandler.CreateShareLink)
		}

		insightRoutes := private.Group("/insights")
		{
			insightRoutes.POST("/analyze", insightHandler.AnalyzeRecord)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}
