package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appadmission "github.com/schoolfees/backend/internal/application/admission"
	appaudit "github.com/schoolfees/backend/internal/application/audit"
	appfee "github.com/schoolfees/backend/internal/application/fee"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/infrastructure/auth"
	"github.com/schoolfees/backend/internal/infrastructure/cache"
	"github.com/schoolfees/backend/internal/infrastructure/config"
	"github.com/schoolfees/backend/internal/infrastructure/event"
	"github.com/schoolfees/backend/internal/infrastructure/logger"
	"github.com/schoolfees/backend/internal/infrastructure/notification"
	"github.com/schoolfees/backend/internal/infrastructure/persistence"
	"github.com/schoolfees/backend/internal/infrastructure/receipt"
	"github.com/schoolfees/backend/internal/infrastructure/storage"
	"github.com/schoolfees/backend/internal/infrastructure/telemetry"
	"github.com/schoolfees/backend/internal/interfaces/http/handler"
	"github.com/schoolfees/backend/internal/interfaces/http/middleware"
	"github.com/schoolfees/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const maxBodyBytes = 1 << 20

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log, cfg.App.Name)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting fee ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)
	feeMetrics, err := telemetry.NewFeeMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register fee metrics", zap.Error(err))
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	feeRepo := persistence.NewGormStudentFeeRepository(db.DB)
	auditRepo := persistence.NewGormCorrectionAuditRepository(db.DB)
	studentRepo := persistence.NewGormStudentRepository(db.DB)
	admissionRepo := persistence.NewGormAdmissionRepository(db.DB)
	trialRepo := persistence.NewGormTrialUsageRepository(db.DB)
	inAppRepo := persistence.NewGormInAppNotificationRepository(db.DB)
	structureRepo := persistence.NewDualTableStructureRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)

	feeScope := persistence.NewGormFeeTransactionScope(db.DB)
	admissionScope := persistence.NewGormAdmissionTransactionScope(db.DB)
	procedures := persistence.NewGormLedgerProcedures(db.DB, persistence.WithProcedureDueDay(cfg.Billing.DueDay))

	// Event bus
	bus := event.NewInMemoryEventBus(log,
		event.WithBufferSize(cfg.Event.BufferSize),
		event.WithHandlerTimeout(cfg.Event.HandlerTimeout),
	)

	// Application services
	resolver := appfee.NewStructureResolver(structureRepo, log)
	auditWriter := appaudit.NewWriter(feeMetrics, log)
	mutationService := appfee.NewMutationService(feeScope, feeRepo, resolver, procedures, auditWriter, bus, log,
		appfee.WithDueDay(cfg.Billing.DueDay),
		appfee.WithMetrics(feeMetrics),
	)
	ledgerService := appfee.NewLedgerService(feeRepo, nil)
	historyService := appaudit.NewHistoryService(auditRepo)

	// Outbound channels
	var mailer notification.Mailer
	switch cfg.Email.Provider {
	case "sendgrid":
		mailer = notification.NewSendGridMailer(cfg.Email.SendGridAPIKey, cfg.Email.FromName, cfg.Email.FromAddress, log)
	default:
		mailer = notification.NewLogMailer(log)
	}
	dispatcher := notification.NewDispatcher(mailer, inAppRepo, feeMetrics, log)

	bridgeService := appadmission.NewBridgeService(admissionScope, studentRepo, admissionRepo, trialRepo,
		dispatcher, auditWriter, bus, log,
		appadmission.WithBridgeMetrics(feeMetrics),
	)

	objectStore, err := newObjectStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize receipt storage", zap.Error(err))
	}
	receipts, err := receipt.NewGenerator(objectStore, receipt.Options{
		Prefix:   cfg.Storage.ReceiptPrefix,
		School:   cfg.Email.FromName,
		Currency: cfg.Billing.Currency,
		LinkTTL:  cfg.Storage.PresignTTL,
		Logger:   log,
	})
	if err != nil {
		log.Fatal("Failed to initialize receipt generator", zap.Error(err))
	}

	// Event handlers, deduplicated per handler name
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	idempotency := event.WithIdempotencyConfig(shared.IdempotencyConfig{
		TTL:     cfg.Event.IdempotencyTTL,
		Enabled: true,
	})
	for name, h := range map[string]shared.EventHandler{
		"receipt":            appfee.NewReceiptHandler(studentRepo, paymentRepo, receipts, log),
		"payment_email":      appfee.NewPaymentNotificationHandler(studentRepo, dispatcher, log),
		"admission_decision": appadmission.NewDecisionNotificationHandler(dispatcher, log),
	} {
		bus.Subscribe(event.NewIdempotentHandler(name, h, idempotencyStore, log, idempotency))
	}
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register HTTP metrics", zap.Error(err))
	}
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	engine.Use(
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		httpMetrics,
		middleware.CORSWithConfig(corsCfg),
		middleware.Secure(),
		middleware.BodyLimit(maxBodyBytes),
	)

	jwtService := auth.NewJWTService(cfg.JWT)

	feeHandler := handler.NewFeeHandler(mutationService, historyService)
	studentHandler := handler.NewStudentHandler(studentRepo, mutationService, ledgerService, historyService)
	admissionHandler := handler.NewAdmissionHandler(bridgeService)
	notificationHandler := handler.NewNotificationHandler(inAppRepo)
	systemHandler := handler.NewSystemHandler(db, version)
	for _, h := range []*handler.BaseHandler{
		&feeHandler.BaseHandler,
		&studentHandler.BaseHandler,
		&admissionHandler.BaseHandler,
	} {
		h.SourceScreen = cfg.Billing.SourceScreen
	}

	router.NewRouter(engine,
		router.WithAPIMiddleware(
			middleware.JWTAuthMiddleware(jwtService),
			middleware.TracingAttributeInjector(),
		),
	).
		RegisterPublic(systemHandler).
		Register(feeHandler).
		Register(studentHandler).
		Register(admissionHandler).
		Register(notificationHandler).
		Register(systemHandler).
		Setup()

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func newObjectStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (receipt.ObjectStore, error) {
	if cfg.Storage.Provider != "s3" {
		log.Info("Receipt storage provider is stub, receipts stay in memory")
		return storage.NewStubObjectStorage(), nil
	}
	return storage.NewS3ObjectStorage(ctx, &cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignTTL(cfg.Storage.PresignTTL),
	)
}
