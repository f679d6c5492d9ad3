package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	crmapp "github.com/anycrm/backend/internal/application/crm"
	"github.com/anycrm/backend/internal/application/enrichment"
	"github.com/anycrm/backend/internal/application/importer"
	settingsapp "github.com/anycrm/backend/internal/application/settings"
	"github.com/anycrm/backend/internal/infrastructure/agent"
	"github.com/anycrm/backend/internal/infrastructure/auth"
	"github.com/anycrm/backend/internal/infrastructure/cache"
	"github.com/anycrm/backend/internal/infrastructure/config"
	"github.com/anycrm/backend/internal/infrastructure/event"
	"github.com/anycrm/backend/internal/infrastructure/logger"
	"github.com/anycrm/backend/internal/infrastructure/persistence"
	"github.com/anycrm/backend/internal/infrastructure/persistence/models"
	"github.com/anycrm/backend/internal/infrastructure/scheduler"
	"github.com/anycrm/backend/internal/infrastructure/storage"
	"github.com/anycrm/backend/internal/infrastructure/telemetry"
	"github.com/anycrm/backend/internal/interfaces/http/handler"
	"github.com/anycrm/backend/internal/interfaces/http/middleware"
	"github.com/anycrm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			AnyCRM Backend API
//	@version		1.0
//	@description	Minimal CRM backend: accounts, contacts, attachments, CSV import and AI-driven account enrichment.

//	@host		localhost:8000
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

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
		_ = log.Sync()
	}()

	log.Info("Starting AnyCRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry pipelines are no-ops unless enabled
	logsProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logs provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := logsProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logs provider", zap.Error(err))
		}
	}()

	// Every log entry from here on also reaches the collector.
	log = logsProvider.Attach(log, logger.ParseLevel(cfg.Log.Level))

	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	if cfg.Telemetry.ProfilingEnabled {
		profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
			Enabled:           true,
			ServerAddress:     cfg.Telemetry.ProfilingServer,
			ApplicationName:   cfg.Telemetry.ServiceName,
			ProfileCPU:        true,
			ProfileInuseSpace: true,
			ProfileGoroutines: true,
		}, log)
		if err != nil {
			log.Warn("Failed to start profiler", zap.Error(err))
		} else {
			defer func() {
				if err := profiler.Stop(); err != nil {
					log.Error("Error stopping profiler", zap.Error(err))
				}
			}()
		}
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.Open(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DefaultDBTracingConfig(), log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}

		dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
		if err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		} else if dbMetrics != nil {
			dbMetrics.StartPoolSampling(context.Background())
			defer dbMetrics.Stop()
		}
	}

	// The sqlite driver is the zero-setup path; schema migrations via the
	// migrate command target postgres only
	if cfg.Database.Driver == "sqlite" {
		if err := db.DB.AutoMigrate(
			&models.AccountModel{},
			&models.ContactModel{},
			&models.AttachmentModel{},
			&models.SettingsModel{},
		); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	// Initialize repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	contactRepo := persistence.NewGormContactRepository(db.DB)
	attachmentRepo := persistence.NewGormAttachmentRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)

	// Event bus connects domain events to the SSE stream
	eventBus := event.NewInMemoryEventBus(log)

	eventStreamHandler := handler.NewEventStreamHandler(
		handler.WithStreamLogger(log),
	)
	eventBus.Subscribe(eventStreamHandler)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if err := eventStreamHandler.Start(); err != nil {
		log.Fatal("Failed to start event stream handler", zap.Error(err))
	}
	defer eventStreamHandler.Stop()

	// Initialize application services
	jwtService := auth.NewJWTService(cfg.JWT)
	settingsService := settingsapp.NewService(settingsRepo, jwtService)

	accountService := crmapp.NewAccountService(accountRepo, contactRepo, eventBus)
	contactService := crmapp.NewContactService(contactRepo, accountRepo, eventBus)

	var objectStorage crmapp.ObjectStorageService
	if cfg.Storage.Provider == "s3" {
		s3Store, err := storage.NewS3ObjectStore(&cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		bucketCtx, cancelBucket := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3Store.EnsureBucket(bucketCtx); err != nil {
			cancelBucket()
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		cancelBucket()
		objectStorage = s3Store
		log.Info("Using S3 object storage",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("region", cfg.Storage.Region),
		)
	} else {
		objectStorage = storage.NewStubObjectStorage()
		log.Info("Using stub object storage; presigned URLs are not backed by a real store")
	}

	attachmentService := crmapp.NewAttachmentService(attachmentRepo, accountRepo, objectStorage, log)
	attachmentConfig := crmapp.DefaultAttachmentServiceConfig()
	attachmentConfig.UploadURLExpiry = cfg.Storage.UploadURLExpiry
	attachmentConfig.DownloadURLExpiry = cfg.Storage.DownloadURLExpiry
	attachmentService.SetConfig(attachmentConfig)

	agentClient := agent.NewClient(
		agent.WithTimeout(cfg.Agent.Timeout),
		agent.WithMaxResponseSize(cfg.Agent.MaxResponseSize),
	)

	idempotencyStore := cache.NewIdempotencyStore(cfg.Redis, log)

	enrichmentService := enrichment.NewService(
		accountRepo,
		settingsRepo,
		agentClient,
		idempotencyStore,
		eventBus,
		log,
	)
	enrichmentConfig := enrichment.DefaultServiceConfig()
	enrichmentConfig.StaleAfter = cfg.Enrichment.StaleAfter
	enrichmentConfig.WebhookIdempotencyTTL = cfg.Enrichment.WebhookIdempotencyTTL
	enrichmentService.SetConfig(enrichmentConfig)

	accountImporter := importer.NewAccountImportService(accountRepo, eventBus)
	contactImporter := importer.NewContactImportService(contactRepo, accountRepo, eventBus)

	// Background sweeper returns accounts stuck in enriching back to ready
	sweeper := scheduler.NewEnrichmentSweeper(enrichmentService, log, scheduler.EnrichmentSweeperConfig{
		Enabled:      cfg.Enrichment.SweepEnabled,
		Interval:     cfg.Enrichment.SweepInterval,
		SweepTimeout: 30 * time.Second,
	})
	if err := sweeper.Start(context.Background()); err != nil {
		log.Fatal("Failed to start enrichment sweeper", zap.Error(err))
	}
	defer func() {
		if err := sweeper.Stop(context.Background()); err != nil {
			log.Error("Error stopping enrichment sweeper", zap.Error(err))
		}
	}()

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountService)
	contactHandler := handler.NewContactHandler(contactService)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService)
	enrichmentHandler := handler.NewEnrichmentHandler(enrichmentService)
	webhookHandler := handler.NewWebhookHandler(enrichmentService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	authHandler := handler.NewAuthHandler(settingsService)
	importHandler := handler.NewImportHandler(accountImporter, contactImporter)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. Telemetry - Tracing, metrics, profiling labels (if enabled)
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			Enabled:     true,
			ServiceName: cfg.Telemetry.ServiceName,
		}))
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			Enabled:       true,
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
		}))
	}
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling())
	}

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
	engine.GET("/health", systemHandler.Health)

	// Enrichment agent callback (no authentication; delivery-scoped)
	engine.POST("/webhook/accounts/:id", webhookHandler.HandleEnrichmentResult)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Bearer token authentication on all API routes except the login
	// endpoint; SSE clients may pass the token as a query parameter
	r.Use(middleware.Auth(middleware.DefaultAuthConfig(settingsService, jwtService)))

	// Login gets its own tighter limiter to slow down brute forcing
	authRoutes := router.NewDomainGroup("auth", "/auth")
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	authRoutes.POST("/login", middleware.AuthRateLimit(loginLimiter), authHandler.Login)

	accountRoutes := router.NewDomainGroup("accounts", "/accounts")
	accountRoutes.POST("", accountHandler.Create)
	accountRoutes.GET("", accountHandler.List)
	accountRoutes.GET("/:id", accountHandler.GetByID)
	accountRoutes.PATCH("/:id", accountHandler.Update)
	accountRoutes.DELETE("/:id", accountHandler.Delete)
	accountRoutes.POST("/:id/enrich", enrichmentHandler.Trigger)
	accountRoutes.GET("/:id/contacts", contactHandler.ListByAccount)
	accountRoutes.POST("/:id/attachments", attachmentHandler.InitiateUpload)
	accountRoutes.GET("/:id/attachments", attachmentHandler.ListByAccount)

	contactRoutes := router.NewDomainGroup("contacts", "/contacts")
	contactRoutes.POST("", contactHandler.Create)
	contactRoutes.GET("", contactHandler.List)
	contactRoutes.GET("/:id", contactHandler.GetByID)
	contactRoutes.PATCH("/:id", contactHandler.Update)
	contactRoutes.DELETE("/:id", contactHandler.Delete)

	attachmentRoutes := router.NewDomainGroup("attachments", "/attachments")
	attachmentRoutes.POST("/:id/confirm", attachmentHandler.ConfirmUpload)
	attachmentRoutes.DELETE("/:id", attachmentHandler.Delete)

	settingsRoutes := router.NewDomainGroup("settings", "/settings")
	settingsRoutes.GET("", settingsHandler.Get)
	settingsRoutes.PATCH("", settingsHandler.Update)

	importRoutes := router.NewDomainGroup("import", "/import")
	importRoutes.POST("/accounts", importHandler.ImportAccounts)
	importRoutes.POST("/contacts", importHandler.ImportContacts)

	eventRoutes := router.NewDomainGroup("events", "/events")
	eventRoutes.GET("/stream", eventStreamHandler.Stream)

	systemRoutes := router.NewDomainGroup("system", "")
	systemRoutes.GET("/industries", systemHandler.ListIndustries)

	r.Register(authRoutes).
		Register(accountRoutes).
		Register(contactRoutes).
		Register(attachmentRoutes).
		Register(settingsRoutes).
		Register(importRoutes).
		Register(eventRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

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
