package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-wallet/config"
	httpHandler "marketplace-wallet/internal/adapter/http/handler"
	pgStorage "marketplace-wallet/internal/adapter/storage/postgres"
	redisStorage "marketplace-wallet/internal/adapter/storage/redis"
	"marketplace-wallet/internal/core/ports"
	"marketplace-wallet/internal/service"
	"marketplace-wallet/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Marketplace Wallet Service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	shopRepo := pgStorage.NewShopRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	withdrawalRepo := pgStorage.NewWithdrawalRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	productRepo := pgStorage.NewProductRepo(pool)
	eventRepo := pgStorage.NewPaymentEventRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	callbackCache := redisStorage.NewCallbackCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Outbound collaborators
	processor := service.NewProcessorClient(
		cfg.Payment.BaseURL,
		cfg.Payment.APIKey,
		cfg.Payment.APISecret,
		sigSvc,
		&http.Client{Timeout: cfg.Payment.Timeout},
		logger.WithComponent(log, "processor"),
	)
	notifier := service.NewHTTPNotifier(
		cfg.Notification.BaseURL,
		&http.Client{Timeout: cfg.Notification.Timeout},
		logger.WithComponent(log, "notifier"),
	)

	// Initialize business services
	authSvc := service.NewAuthService(userRepo, shopRepo, walletRepo, transactor, hashSvc, tokenSvc, cfg.Payment.Currency)
	walletSvc := service.NewWalletService(walletRepo, shopRepo, transactor, logger.WithComponent(log, "wallet"))
	withdrawalSvc := service.NewWithdrawalService(withdrawalRepo, walletRepo, shopRepo, transactor, notifier, logger.WithComponent(log, "withdrawal"))
	orderSvc := service.NewOrderService(orderRepo, productRepo, walletRepo, shopRepo, transactor, processor, notifier, logger.WithComponent(log, "order"))
	callbackSvc := service.NewPaymentCallbackService(orderRepo, productRepo, walletRepo, shopRepo, eventRepo, callbackCache, processor, transactor, logger.WithComponent(log, "callback"))

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		WalletSvc:      walletSvc,
		WithdrawalSvc:  withdrawalSvc,
		OrderSvc:       orderSvc,
		CallbackSvc:    callbackSvc,
		TokenSvc:       tokenSvc,
		SigSvc:         sigSvc,
		CallbackSecret: cfg.Payment.APISecret,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
