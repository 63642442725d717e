package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"fieldverify/verification-portal-backend/internal/accounts"
	"fieldverify/verification-portal-backend/internal/auth"
	"fieldverify/verification-portal-backend/internal/config"
	"fieldverify/verification-portal-backend/internal/forms"
	"fieldverify/verification-portal-backend/internal/notifications"
	"fieldverify/verification-portal-backend/internal/reports"
	"fieldverify/verification-portal-backend/internal/tasks"
	"fieldverify/verification-portal-backend/pkg/storage"
)

func main() {
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to MongoDB
	logger.Info("Connecting to MongoDB", zap.String("database", cfg.Mongo.Database))
	client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("Failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	db := client.Database(cfg.Mongo.Database)

	// Repositories and indexes
	accountsRepo := accounts.NewRepository(db)
	tasksRepo := tasks.NewRepository(db)
	formsStore := forms.NewStore(db)
	reportsRepo := reports.NewRepository(db)
	for name, ensure := range map[string]func(context.Context) error{
		"accounts": accountsRepo.EnsureIndexes,
		"tasks":    tasksRepo.EnsureIndexes,
		"forms":    formsStore.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			logger.Fatal("Failed to ensure indexes", zap.String("domain", name), zap.Error(err))
		}
	}

	// External collaborators
	attachmentStore, err := storage.NewS3Client(ctx, cfg.Storage.Region, cfg.Storage.Bucket,
		cfg.Storage.AccessKeyID, cfg.Storage.SecretAccessKey)
	if err != nil {
		logger.Fatal("Failed to build S3 client", zap.Error(err))
	}
	mailer, err := notifications.NewService(ctx, cfg.Storage.Region, cfg.Email.Sender,
		cfg.Storage.AccessKeyID, cfg.Storage.SecretAccessKey, logger)
	if err != nil {
		logger.Fatal("Failed to build mail service", zap.Error(err))
	}

	// Services and handlers
	authService := auth.NewService(accountsRepo, cfg.Security, logger)
	authHandler := auth.NewHandler(authService, logger)

	formsService := forms.NewService(formsStore, logger)
	tasksService := tasks.NewService(tasksRepo, formsService, attachmentStore, logger)
	tasksHandler := tasks.NewHandler(tasksService, logger)

	accountsService := accounts.NewService(accountsRepo, tasksService, mailer, logger)
	accountsHandler := accounts.NewHandler(accountsService, logger)

	reportsService := reports.NewService(reportsRepo, logger)
	reportsHandler := reports.NewHandler(reportsService, logger)

	// Setup Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	authed := auth.Middleware(authService)
	api := router.Group("/api/v1")
	authHandler.RegisterRoutes(api, authed)
	protected := api.Group("", authed)
	{
		accountsHandler.RegisterRoutes(protected)
		tasksHandler.RegisterRoutes(protected)
		reportsHandler.RegisterRoutes(protected)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}
