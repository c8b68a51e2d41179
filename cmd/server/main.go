package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cashdeskapp "github.com/hodaifayahia/HIS-sub012/internal/application/cashdesk"
	ledgerapp "github.com/hodaifayahia/HIS-sub012/internal/application/ledger"
	vaultapp "github.com/hodaifayahia/HIS-sub012/internal/application/vault"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/auth"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/cache"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/config"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/event"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/logger"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/persistence"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/scheduler"
	"github.com/hodaifayahia/HIS-sub012/internal/interfaces/http/handler"
	"github.com/hodaifayahia/HIS-sub012/internal/interfaces/http/middleware"
	"github.com/hodaifayahia/HIS-sub012/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
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

	log.Info("Starting cash custody service",
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

	// Idempotency store (Redis when enabled, in-memory fallback)
	idempotencyStore, err := cache.NewIdempotencyStore(cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}

	// Transaction scopes and anti-corruption providers
	ledgerScope := persistence.NewGormLedgerTransactionScope(db.DB)
	cashdeskScope := persistence.NewGormCashdeskTransactionScope(db.DB)
	vaultScope := persistence.NewGormVaultTransactionScope(db.DB)
	bankAccounts := persistence.NewGormBankAccountProvider(db.DB)
	identity := persistence.NewGormIdentityProvider(db.DB)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)

	clock := shared.SystemClock{}

	// Application services
	paymentService := ledgerapp.NewPaymentService(ledgerScope, bankAccounts, idempotencyStore, eventBus, clock, log)
	authorizationService := ledgerapp.NewAuthorizationService(ledgerScope, identity, eventBus, clock, log)
	bankRequestService := ledgerapp.NewBankRequestService(ledgerScope, identity, eventBus, clock, log)
	sessionService := cashdeskapp.NewSessionService(cashdeskScope, identity, eventBus, clock, log)
	transferService := cashdeskapp.NewTransferService(cashdeskScope, eventBus, clock, log)
	vaultService := vaultapp.NewVaultService(vaultScope, identity, eventBus, clock, log)

	// Expiry sweeper for pending authorizations and transfers
	if cfg.Scheduler.Enabled {
		sweeper := scheduler.NewExpirySweeper(scheduler.ExpirySweeperConfig{
			Interval: cfg.Scheduler.SweepInterval,
		}, log)
		sweeper.Register("refund-authorizations", authorizationService)
		sweeper.Register("cash-transfers", transferService)
		if err := sweeper.Start(context.Background()); err != nil {
			log.Fatal("Failed to start expiry sweeper", zap.Error(err))
		}
		defer func() {
			if err := sweeper.Stop(context.Background()); err != nil {
				log.Error("Error stopping expiry sweeper", zap.Error(err))
			}
		}()
		log.Info("Expiry sweeper started",
			zap.Duration("interval", cfg.Scheduler.SweepInterval),
		)
	}

	// HTTP handlers
	paymentHandler := handler.NewPaymentHandler(paymentService)
	authorizationHandler := handler.NewAuthorizationHandler(authorizationService)
	bankRequestHandler := handler.NewBankRequestHandler(bankRequestService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	transferHandler := handler.NewTransferHandler(transferService)
	vaultHandler := handler.NewVaultHandler(vaultService)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, panic recovery, request logging, CORS
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// JWT authentication on the versioned API
	jwtService := auth.NewJWTService(cfg.JWT)
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/info",
			"/api/v1/system/health",
		},
		Logger: log,
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	r.Register(paymentHandler).
		Register(authorizationHandler).
		Register(bankRequestHandler).
		Register(sessionHandler).
		Register(transferHandler).
		Register(vaultHandler).
		Register(systemHandler)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced server shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
