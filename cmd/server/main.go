package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	auditapp "github.com/pathway/backend/internal/application/audit"
	caseworkapp "github.com/pathway/backend/internal/application/casework"
	"github.com/pathway/backend/internal/application/dashboard"
	earningsapp "github.com/pathway/backend/internal/application/earnings"
	eventapp "github.com/pathway/backend/internal/application/event"
	identityapp "github.com/pathway/backend/internal/application/identity"
	"github.com/pathway/backend/internal/application/intake"
	partnerapp "github.com/pathway/backend/internal/application/partner"
	"github.com/pathway/backend/internal/infrastructure/auth"
	"github.com/pathway/backend/internal/infrastructure/cache"
	"github.com/pathway/backend/internal/infrastructure/config"
	"github.com/pathway/backend/internal/infrastructure/event"
	"github.com/pathway/backend/internal/infrastructure/logger"
	"github.com/pathway/backend/internal/infrastructure/persistence"
	"github.com/pathway/backend/internal/infrastructure/scheduler"
	"github.com/pathway/backend/internal/infrastructure/storage"
	"github.com/pathway/backend/internal/infrastructure/telemetry"
	"github.com/pathway/backend/internal/interfaces/http/handler"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
	"github.com/pathway/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// The bootstrap logger is only used to report the telemetry setup
	bootLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log provider", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
	}, telemetry.NewZapCore(logProvider, logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Pathway backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("telemetry", tracerProvider.IsEnabled()),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

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

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Redis backs idempotency, session revocation and rate limits. Without
	// it every instance keeps its own state.
	stores, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing stores", zap.Error(err))
		}
	}()

	metrics := telemetry.NewMetrics()
	if err := db.RegisterMetrics(metrics.Registry(), cfg.Database.DBName); err != nil {
		log.Warn("Failed to register database pool metrics", zap.Error(err))
	}

	// Repositories
	caseRepo := persistence.NewGormCaseRepository(db.DB)
	escalationRepo := persistence.NewGormEscalationRepository(db.DB)
	flagRepo := persistence.NewGormComplianceFlagRepository(db.DB)
	contactRepo := persistence.NewGormContactLogRepository(db.DB)
	poolRepo := persistence.NewGormPoolRepository(db.DB)
	pdRepo := persistence.NewGormPDRepository(db.DB)
	applicationRepo := persistence.NewGormApplicationRepository(db.DB)
	channelRepo := persistence.NewGormChannelRepository(db.DB)
	providerRepo := persistence.NewGormProviderRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	userRepo := persistence.NewGormAdminUserRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	txManager := persistence.NewGormTxManager(db.DB)

	// Events are written to the outbox inside the business transaction and
	// delivered to the bus by the processor
	serializer := event.NewDomainEventSerializer()
	outboxPublisher := event.NewOutboxPublisher(outboxRepo, serializer)
	recorder := auditapp.NewRecorder(auditRepo)

	// Application services
	caseworkDeps := caseworkapp.Deps{
		Repos: caseworkapp.Repositories{
			Cases:       caseRepo,
			Escalations: escalationRepo,
			Flags:       flagRepo,
			Contacts:    contactRepo,
			Pools:       poolRepo,
			PDs:         pdRepo,
			Channels:    channelRepo,
			Providers:   providerRepo,
		},
		Tx:       txManager,
		Events:   outboxPublisher,
		Recorder: recorder,
		Metrics:  metrics,
		Logger:   log.Named("casework"),
	}
	caseService := caseworkapp.NewCaseService(caseworkDeps)
	contactService := caseworkapp.NewContactService(caseworkDeps)
	escalationService := caseworkapp.NewEscalationService(caseworkDeps)
	complianceService := caseworkapp.NewComplianceService(caseworkDeps)
	poolService := caseworkapp.NewPoolService(caseworkDeps)

	partnerDeps := partnerapp.Deps{
		PDs:          pdRepo,
		Applications: applicationRepo,
		Channels:     channelRepo,
		Providers:    providerRepo,
		Tx:           txManager,
		Events:       outboxPublisher,
		Recorder:     recorder,
		Logger:       log.Named("partner"),
	}
	applicationService := partnerapp.NewApplicationService(partnerDeps, documentStorage(ctx, cfg, log), partnerapp.ApplicationConfig{
		DefaultFee:    cfg.Earnings.DefaultFeePerCase,
		PresignExpiry: cfg.Storage.PresignExpiry,
		MaxUploadSize: cfg.Storage.MaxUploadSize,
	})
	pdService := partnerapp.NewPDService(partnerDeps, stores.Blacklist, cfg.JWT.AccessTokenExpiration)
	channelService := partnerapp.NewChannelService(partnerDeps)

	earningsService := earningsapp.NewService(ledgerRepo, pdRepo, txManager, outboxPublisher, recorder, cfg.Earnings.Currency, log.Named("earnings"))
	intakeService := intake.NewService(caseRepo, poolRepo, pdRepo, txManager, outboxPublisher, recorder,
		stores.Idempotency, metrics, log.Named("intake"), intake.Config{
			AutoPool:       cfg.Intake.AutoPool,
			IdempotencyTTL: cfg.Intake.IdempotencyTTL,
		})
	dashboardService := dashboard.NewService(caseRepo, escalationRepo, flagRepo, pdRepo, applicationRepo, ledgerRepo, cfg.Earnings.Currency)
	auditService := auditapp.NewService(auditRepo, recorder, log.Named("audit"))
	outboxService := eventapp.NewOutboxService(outboxRepo, txManager, recorder, log.Named("outbox"))

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, pdRepo, jwtService, stores.Blacklist, txManager, recorder, metrics, log.Named("auth"))
	userService := identityapp.NewUserService(userRepo, txManager, recorder, stores.Blacklist, cfg.JWT.AccessTokenExpiration, log.Named("users"))

	if cfg.Bootstrap.Enabled() {
		created, err := userService.Bootstrap(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName)
		if err != nil {
			log.Fatal("Failed to bootstrap super admin", zap.Error(err))
		}
		if created {
			log.Info("Bootstrapped super admin", zap.String("email", cfg.Bootstrap.AdminEmail))
		}
	}

	// Event bus and handlers. Accrual is wrapped so an outbox redelivery
	// never books the fee twice.
	eventBus := event.NewInMemoryEventBus(log.Named("events"))
	accrual := earningsapp.NewCaseCompletedHandler(ledgerRepo, pdRepo, txManager, recorder, cfg.Earnings.Currency, log.Named("accrual"))
	eventBus.Subscribe(event.NewIdempotentHandler("earnings-accrual", accrual, stores.Idempotency, log))
	log.Info("Event handlers registered", zap.Strings("accrual_events", accrual.EventTypes()))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	outboxConfig := event.DefaultOutboxProcessorConfig()
	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, serializer, outboxConfig, log, event.WithObserver(metrics))
	if err := outboxProcessor.Start(ctx); err != nil {
		log.Fatal("Failed to start outbox processor", zap.Error(err))
	}
	defer func() {
		if err := outboxProcessor.Stop(context.Background()); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}()
	log.Info("Outbox processor started",
		zap.Int("batch_size", outboxConfig.BatchSize),
		zap.Duration("poll_interval", outboxConfig.PollInterval),
	)

	if cfg.Scheduler.Enabled {
		jobs := scheduler.New(scheduler.Config{JobTimeout: cfg.Scheduler.JobTimeout, Location: time.UTC}, log, scheduler.WithMetrics(metrics))
		if err := jobs.Register(cfg.Scheduler.PoolSLASchedule, caseworkapp.NewPoolSLAJob(caseworkDeps, cfg.Scheduler.BatchSize)); err != nil {
			log.Fatal("Failed to register pool SLA job", zap.Error(err))
		}
		if err := jobs.Register(cfg.Scheduler.ApplicationSchedule,
			partnerapp.NewApplicationExpiryJob(partnerDeps, cfg.Scheduler.ApplicationExpiry, cfg.Scheduler.BatchSize)); err != nil {
			log.Fatal("Failed to register application expiry job", zap.Error(err))
		}
		jobs.Start(ctx)
		defer func() {
			if err := jobs.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		log.Info("Scheduler started", zap.Int("jobs", len(jobs.Jobs())))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	session := func(subject auth.SubjectType) gin.HandlerFunc {
		return middleware.Session(middleware.SessionConfig{
			JWT:        jwtService,
			Blacklist:  stores.Blacklist,
			CookieName: middleware.CookieName(cfg.Cookie.Name, subject),
			Subject:    subject,
			Logger:     log,
		})
	}
	guards := router.Guards{
		AdminSession: session(auth.SubjectAdmin),
		PDSession:    session(auth.SubjectPD),
	}
	if cfg.HTTP.RateLimitEnabled {
		guards.LoginLimit = middleware.RateLimit(
			middleware.NewLimiter(stores.Redis, "login", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow),
			middleware.ByRouteAndIP,
		)
		guards.TrackLimit = middleware.RateLimit(
			middleware.NewLimiter(stores.Redis, "track", cfg.Intake.TrackRateLimit, cfg.Intake.TrackRateWindow),
			middleware.ByClientIP,
		)
		log.Info("Rate limiting enabled",
			zap.Int("login_requests", cfg.HTTP.AuthRateLimitRequests),
			zap.Int("track_requests", cfg.Intake.TrackRateLimit),
		)
	}

	checks := map[string]router.HealthCheck{
		"database": db.PingContext,
	}
	if stores.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return stores.Redis.Ping(ctx).Err() }
	}

	engine := router.NewEngine(router.EngineConfig{
		App:            cfg.App,
		HTTP:           cfg.HTTP,
		Telemetry:      cfg.Telemetry,
		Logger:         log,
		Metrics:        metrics,
		TracerProvider: otel.GetTracerProvider(),
		Guards:         guards,
		Checks:         checks,
		Handlers: router.Handlers{
			AdminAuth:    handler.NewAuthHandler(authService, cfg.Cookie, auth.SubjectAdmin),
			PDAuth:       handler.NewAuthHandler(authService, cfg.Cookie, auth.SubjectPD),
			Dashboard:    handler.NewDashboardHandler(dashboardService),
			Cases:        handler.NewCaseHandler(caseService, contactService, escalationService, complianceService),
			Worklist:     handler.NewWorklistHandler(escalationService, complianceService),
			Pools:        handler.NewPoolHandler(poolService),
			PDs:          handler.NewPDHandler(pdService),
			Applications: handler.NewApplicationHandler(applicationService),
			Channels:     handler.NewChannelHandler(channelService),
			Earnings:     handler.NewEarningsHandler(earningsService),
			Audit:        handler.NewAuditHandler(auditService),
			Users:        handler.NewUserHandler(userService),
			Outbox:       handler.NewOutboxHandler(outboxService),
			Intake:       handler.NewIntakeHandler(intakeService),
			Portal:       handler.NewPortalHandler(caseService, contactService, earningsService),
		},
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down log provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// documentStorage returns S3 storage when a bucket is configured. In
// development a stub issues fake URLs so the wizard can be exercised
// without a bucket.
func documentStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) partnerapp.DocumentStorage {
	if !cfg.Storage.Enabled() {
		if !cfg.App.IsDevelopment() {
			log.Fatal("storage.bucket is required outside development")
		}
		log.Warn("Object storage not configured, document uploads use stub URLs")
		return storage.NewStubDocumentStore()
	}

	s3Storage, err := storage.NewS3DocumentStore(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if cfg.App.IsDevelopment() {
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Warn("Could not ensure storage bucket", zap.Error(err))
		}
	}
	return s3Storage
}
