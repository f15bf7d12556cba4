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

	_ "github.com/andreypavlenko/crmcore/docs" // swagger docs

	"github.com/andreypavlenko/crmcore/internal/config"
	"github.com/andreypavlenko/crmcore/internal/platform/auth"
	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/andreypavlenko/crmcore/internal/platform/llm"
	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	"github.com/andreypavlenko/crmcore/internal/platform/mailer"
	"github.com/andreypavlenko/crmcore/internal/platform/outbound"
	"github.com/andreypavlenko/crmcore/internal/platform/postgres"
	"github.com/andreypavlenko/crmcore/internal/platform/redis"
	"github.com/andreypavlenko/crmcore/internal/platform/sentryhub"
	"github.com/andreypavlenko/crmcore/internal/platform/storage"

	authHandler "github.com/andreypavlenko/crmcore/modules/auth/handler"
	authRepo "github.com/andreypavlenko/crmcore/modules/auth/repository"
	authService "github.com/andreypavlenko/crmcore/modules/auth/service"
	userRepo "github.com/andreypavlenko/crmcore/modules/users/repository"

	companyHandler "github.com/andreypavlenko/crmcore/modules/companies/handler"
	companyRepo "github.com/andreypavlenko/crmcore/modules/companies/repository"
	companyService "github.com/andreypavlenko/crmcore/modules/companies/service"

	contactHandler "github.com/andreypavlenko/crmcore/modules/contacts/handler"
	contactRepo "github.com/andreypavlenko/crmcore/modules/contacts/repository"
	contactService "github.com/andreypavlenko/crmcore/modules/contacts/service"

	personaHandler "github.com/andreypavlenko/crmcore/modules/persona/handler"
	personaRepo "github.com/andreypavlenko/crmcore/modules/persona/repository"
	personaService "github.com/andreypavlenko/crmcore/modules/persona/service"

	commentHandler "github.com/andreypavlenko/crmcore/modules/comments/handler"
	commentRepo "github.com/andreypavlenko/crmcore/modules/comments/repository"
	commentService "github.com/andreypavlenko/crmcore/modules/comments/service"

	tagHandler "github.com/andreypavlenko/crmcore/modules/tags/handler"
	tagRepo "github.com/andreypavlenko/crmcore/modules/tags/repository"
	tagService "github.com/andreypavlenko/crmcore/modules/tags/service"

	importHandler "github.com/andreypavlenko/crmcore/modules/imports/handler"
	importRepo "github.com/andreypavlenko/crmcore/modules/imports/repository"
	importService "github.com/andreypavlenko/crmcore/modules/imports/service"

	notifyHandler "github.com/andreypavlenko/crmcore/modules/notify/handler"
	notifyRepo "github.com/andreypavlenko/crmcore/modules/notify/repository"
	notifyService "github.com/andreypavlenko/crmcore/modules/notify/service"

	quotaHandler "github.com/andreypavlenko/crmcore/modules/quota/handler"
	quotaRepo "github.com/andreypavlenko/crmcore/modules/quota/repository"
	quotaService "github.com/andreypavlenko/crmcore/modules/quota/service"

	schedulerHandler "github.com/andreypavlenko/crmcore/modules/scheduler/handler"
	schedulerRepo "github.com/andreypavlenko/crmcore/modules/scheduler/repository"

	webinarHandler "github.com/andreypavlenko/crmcore/modules/webinar/handler"
	webinarRepo "github.com/andreypavlenko/crmcore/modules/webinar/repository"
	webinarService "github.com/andreypavlenko/crmcore/modules/webinar/service"

	newsletterHandler "github.com/andreypavlenko/crmcore/modules/newsletter/handler"
	newsletterRepo "github.com/andreypavlenko/crmcore/modules/newsletter/repository"
	newsletterService "github.com/andreypavlenko/crmcore/modules/newsletter/service"

	aggregatorHandler "github.com/andreypavlenko/crmcore/modules/aggregator/handler"
	aggregatorRepo "github.com/andreypavlenko/crmcore/modules/aggregator/repository"
	aggregatorService "github.com/andreypavlenko/crmcore/modules/aggregator/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title Jobber CRM Core API
// @version 1.0
// @description Bulk contact ingestion and job-orchestration core - a modular monolith backend for LinkedIn CSV import, persona classification, and company/contact management.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@jobber.example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @x-extension-openapi {"example": "value on a json format"}

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting Jobber API server",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	if err := sentryhub.Init(cfg.Sentry); err != nil {
		logger.Warn("Failed to initialize Sentry, continuing without error reporting", zap.Error(err))
	}
	defer sentryhub.Flush(2 * time.Second)

	ctx := context.Background()

	// Initialize PostgreSQL
	pgClient, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgClient.Close()
	logger.Info("Connected to PostgreSQL")

	// Run database migrations (MANDATORY: must run before HTTP server starts)
	migrationsPath := "./migrations"
	if err := postgres.RunMigrations(ctx, cfg.Database, logger, migrationsPath); err != nil {
		logger.Fatal("Failed to run database migrations",
			zap.Error(err),
			zap.String("migrations_path", migrationsPath),
		)
	}

	// Initialize Redis
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// Initialize S3 client (optional - gracefully handle missing config)
	var s3Client *storage.S3Client
	if cfg.S3.Endpoint != "" && cfg.S3.Bucket != "" {
		s3Client, err = storage.NewS3Client(cfg.S3)
		if err != nil {
			logger.Warn("Failed to initialize S3 client, file upload will be disabled", zap.Error(err))
		} else {
			logger.Info("S3 client initialized", zap.String("bucket", cfg.S3.Bucket))
		}
	} else {
		logger.Info("S3 configuration not provided, file upload will be disabled")
	}
	if s3Client == nil {
		logger.Warn("S3 client not initialized, imports module routes will not be registered")
	}

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpPlatform.RequestIDMiddleware())
	router.Use(httpPlatform.LoggerMiddleware(logger))
	router.Use(httpPlatform.CORSMiddleware())

	// Swagger documentation (available in development)
	if cfg.Server.Env != "production" {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		logger.Info("Swagger UI available at /swagger/index.html")
	}

	// Health check endpoint
	router.GET("/health", healthCheckHandler(ctx, pgClient, redisClient))
	
	// Ping endpoint
	router.GET("/ping", pingHandler)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	// Auth middleware
	authMiddleware := auth.AuthMiddleware(jwtManager)

	// Initialize repositories
	userRepository := userRepo.NewUserRepository(pgClient.Pool)
	tokenRepository := authRepo.NewRefreshTokenRepository(pgClient.Pool)
	companyRepository := companyRepo.NewCompanyRepository(pgClient.Pool)
	contactRepository := contactRepo.NewContactRepository(pgClient.Pool)
	keywordRepository := personaRepo.NewKeywordRepository(pgClient.Pool)
	commentRepository := commentRepo.NewCommentRepository(pgClient.Pool)
	tagRepository := tagRepo.NewTagRepository(pgClient.Pool)
	jobRepository := importRepo.NewJobRepository(pgClient.Pool)
	auditRepository := importRepo.NewAuditRepository(pgClient.Pool)
	notificationRepository := notifyRepo.NewNotificationRepository(pgClient.Pool)
	emailLogRepository := notifyRepo.NewEmailLogRepository(pgClient.Pool)
	searchKeywordRepository := quotaRepo.NewSearchKeywordRepository(pgClient.Pool)
	alertRepository := quotaRepo.NewAlertRepository(pgClient.Pool)
	scheduleRepository := schedulerRepo.NewScheduleRepository(pgClient.Pool)
	webinarEventRepository := webinarRepo.NewEventRepository(pgClient.Pool)
	newsletterRepository := newsletterRepo.NewNewsletterRepository(pgClient.Pool)
	caseRepository := aggregatorRepo.NewCaseRepository(pgClient.Pool)

	// Initialize services
	authSvc := authService.NewAuthService(
		userRepository,
		tokenRepository,
		jwtManager,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	companySvc := companyService.NewCompanyService(companyRepository)
	contactSvc := contactService.NewContactService(contactRepository)
	classifierSvc := personaService.NewClassifierService(keywordRepository, redisClient, logger)
	commentSvc := commentService.NewCommentService(commentRepository)
	tagSvc := tagService.NewTagService(tagRepository)

	classifierSvc.StartInvalidationListener(ctx)

	mailerClient := mailer.New(cfg.Mailer)
	llmAdapter := llm.New(cfg.LLM)
	positionSearchActor := outbound.New("https://api.apify.com", 60*time.Second, map[string]string{
		"Authorization": "Bearer " + cfg.Outbound.ApifyToken,
	})

	notifySvc := notifyService.NewNotifyService(notificationRepository, emailLogRepository, mailerClient, logger)
	quotaSvc := quotaService.NewQuotaService(searchKeywordRepository, alertRepository, contactRepository, positionSearchActor, cfg.Outbound, cfg.WeeklyGoals, logger)
	webinarSvc := webinarService.NewService(webinarEventRepository, contactRepository, emailLogRepository, notifySvc, logger)
	newsletterSvc := newsletterService.NewService(newsletterRepository, contactRepository, webinarEventRepository, llmAdapter, notifySvc, logger)
	aggregatorSvc := aggregatorService.NewService(caseRepository, keywordRepository, contactRepository, alertRepository, webinarEventRepository, newsletterRepository, cfg.WeeklyGoals.PerFinder, logger)

	// Initialize handlers
	authHdl := authHandler.NewAuthHandler(authSvc)
	companyHdl := companyHandler.NewCompanyHandler(companySvc)
	contactHdl := contactHandler.NewContactHandler(contactSvc)
	keywordHdl := personaHandler.NewKeywordHandler(classifierSvc)
	commentHdl := commentHandler.NewCommentHandler(commentSvc)
	tagHdl := tagHandler.NewTagHandler(tagSvc)
	notifyHdl := notifyHandler.NewNotifyHandler(notifySvc)
	quotaHdl := quotaHandler.NewHandler(quotaSvc)
	schedulerHdl := schedulerHandler.NewHandler(scheduleRepository)
	webinarHdl := webinarHandler.NewHandler(webinarSvc)
	newsletterHdl := newsletterHandler.NewHandler(newsletterSvc)
	aggregatorHdl := aggregatorHandler.NewHandler(aggregatorSvc)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Register module routes
		authHdl.RegisterRoutes(v1)
		companyHdl.RegisterRoutes(v1, authMiddleware)
		contactHdl.RegisterRoutes(v1, authMiddleware)
		keywordHdl.RegisterRoutes(v1, authMiddleware)
		commentHdl.RegisterRoutes(v1, authMiddleware)
		tagHdl.RegisterRoutes(v1, authMiddleware)
		notifyHdl.RegisterRoutes(v1, authMiddleware)
		quotaHdl.RegisterRoutes(v1, authMiddleware)
		schedulerHdl.RegisterRoutes(v1, authMiddleware)
		webinarHdl.RegisterRoutes(v1, authMiddleware)
		newsletterHdl.RegisterRoutes(v1, authMiddleware)
		aggregatorHdl.RegisterRoutes(v1, authMiddleware)

		if s3Client != nil {
			fileStore := importRepo.NewS3FileStore(s3Client)
			jobSvc := importService.NewJobService(jobRepository, auditRepository, fileStore)
			jobHdl := importHandler.NewJobHandler(jobSvc)
			jobHdl.RegisterRoutes(v1, authMiddleware)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// healthCheckHandler godoc
// @Summary Health Check
// @Description Check the health status of the application and its dependencies
// @Tags system
// @Produce json
// @Success 200 {object} http.HealthResponse
// @Router /health [get]
func healthCheckHandler(ctx context.Context, pgClient *postgres.Client, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		services := make(map[string]string)

		// Check PostgreSQL
		if err := pgClient.Health(ctx); err != nil {
			services["postgres"] = "down"
		} else {
			services["postgres"] = "up"
		}

		// Check Redis
		if err := redisClient.Health(ctx); err != nil {
			services["redis"] = "down"
		} else {
			services["redis"] = "up"
		}

		httpPlatform.RespondWithHealth(c, services)
	}
}

// pingHandler godoc
// @Summary Ping
// @Description Simple ping endpoint to check if the API is responding
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func pingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
