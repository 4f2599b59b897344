package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	commerceapp "github.com/spellworks/backend/internal/application/commerce"
	fulfillmentapp "github.com/spellworks/backend/internal/application/fulfillment"
	"github.com/spellworks/backend/internal/infrastructure/anthropic"
	"github.com/spellworks/backend/internal/infrastructure/config"
	"github.com/spellworks/backend/internal/infrastructure/etsy"
	"github.com/spellworks/backend/internal/infrastructure/logger"
	"github.com/spellworks/backend/internal/infrastructure/persistence"
	"github.com/spellworks/backend/internal/infrastructure/ratelimit"
	"github.com/spellworks/backend/internal/infrastructure/scheduler"
	"github.com/spellworks/backend/internal/infrastructure/sendgrid"
	"github.com/spellworks/backend/internal/interfaces/http/handler"
	"github.com/spellworks/backend/internal/interfaces/http/middleware"
	"github.com/spellworks/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting SpellWorks Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	versionRepo := persistence.NewGormContentVersionRepository(db.DB)
	recordRepo := persistence.NewGormDeliveryRecordRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	credentialRepo := persistence.NewGormCredentialRepository(db.DB)
	checkpointRepo := persistence.NewGormSyncCheckpointRepository(db.DB)

	// Storefront API stack: token manager, shared call budget, client
	etsyConfig := &etsy.Config{
		ClientID:       cfg.Etsy.ClientID,
		RedirectURI:    cfg.Etsy.RedirectURI,
		Scopes:         cfg.Etsy.Scopes,
		AuthURL:        cfg.Etsy.AuthURL,
		TokenURL:       cfg.Etsy.TokenURL,
		APIBaseURL:     cfg.Etsy.APIBaseURL,
		TimeoutSeconds: cfg.Etsy.TimeoutSeconds,
	}
	tokenManager, err := etsy.NewTokenManager(etsyConfig, credentialRepo, log)
	if err != nil {
		log.Fatal("Failed to initialize token manager", zap.Error(err))
	}
	apiLimiter := ratelimit.New(cfg.Etsy.RateLimitPerSecond, cfg.Etsy.RateLimitPerDay)
	etsyClient, err := etsy.NewClient(etsyConfig, tokenManager, apiLimiter, credentialRepo, log)
	if err != nil {
		log.Fatal("Failed to initialize storefront client", zap.Error(err))
	}

	// Content generation client
	generator, err := anthropic.NewClient(&anthropic.Config{
		APIKey:         cfg.Generate.APIKey,
		Model:          cfg.Generate.Model,
		APIURL:         cfg.Generate.APIURL,
		MaxTokens:      cfg.Generate.MaxTokens,
		TimeoutSeconds: cfg.Generate.TimeoutSeconds,
		MaxAttempts:    cfg.Generate.MaxAttempts,
		SystemPrompt:   cfg.Generate.SystemPrompt,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize generation client", zap.Error(err))
	}

	// Delivery email sender
	mailSender, err := sendgrid.NewSender(&sendgrid.Config{
		APIKey:         cfg.Mail.APIKey,
		FromEmail:      cfg.Mail.FromEmail,
		FromName:       cfg.Mail.FromName,
		APIURL:         cfg.Mail.APIURL,
		TimeoutSeconds: cfg.Mail.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize mail sender", zap.Error(err))
	}

	// Initialize application services
	orderService := fulfillmentapp.NewOrderService(orderRepo, versionRepo, recordRepo, categoryRepo, log)
	generationService := fulfillmentapp.NewGenerationService(orderRepo, versionRepo, categoryRepo, generator, log)
	deliveryService := fulfillmentapp.NewDeliveryService(orderRepo, versionRepo, recordRepo, categoryRepo, mailSender, log)
	categoryService := fulfillmentapp.NewCategoryService(categoryRepo)
	syncService := fulfillmentapp.NewSyncService(etsyClient, orderRepo, categoryRepo, checkpointRepo,
		generationService, cfg.Sync.PageSize, log)
	connectionService := commerceapp.NewConnectionService(tokenManager, etsyClient, credentialRepo, log)

	// Receipt sync trigger: periodic passes plus on-demand runs from the API
	syncTrigger, err := scheduler.NewReceiptSyncTrigger(scheduler.Config{
		Enabled:    cfg.Sync.Enabled,
		Interval:   cfg.Sync.Interval,
		RunTimeout: 10 * time.Minute,
	}, syncService, log)
	if err != nil {
		log.Fatal("Failed to initialize sync trigger", zap.Error(err))
	}
	if err := syncTrigger.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync trigger", zap.Error(err))
	}
	defer func() {
		if err := syncTrigger.Stop(context.Background()); err != nil {
			log.Error("Error stopping sync trigger", zap.Error(err))
		}
	}()
	log.Info("Receipt sync trigger started",
		zap.Bool("periodic", cfg.Sync.Enabled),
		zap.Duration("interval", cfg.Sync.Interval),
	)

	// Initialize HTTP handlers
	orderHandler := handler.NewOrderHandler(orderService, generationService, deliveryService, syncTrigger)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	connectionHandler := handler.NewConnectionHandler(connectionService)
	systemHandler := handler.NewSystemHandler(db.Ping)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/healthz", systemHandler.Healthz)

	// Setup API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(orderHandler).
		Register(categoryHandler).
		Register(connectionHandler).
		Register(systemHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
