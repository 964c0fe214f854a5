package main

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"custody-ledger/config"
	custodyAdapter "custody-ledger/internal/adapter/custody"
	httpHandler "custody-ledger/internal/adapter/http/handler"
	oracleAdapter "custody-ledger/internal/adapter/oracle"
	pgStorage "custody-ledger/internal/adapter/storage/postgres"
	redisStorage "custody-ledger/internal/adapter/storage/redis"
	"custody-ledger/internal/core/domain"
	"custody-ledger/internal/core/ports"
	"custody-ledger/internal/service"
	"custody-ledger/pkg/logger"
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
		Msg("Starting Custody Ledger")

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
	balanceRepo := pgStorage.NewBalanceRepo(pool)
	stateRepo := pgStorage.NewStateRepo(pool)
	assetRepo := pgStorage.NewAssetRepo(pool)
	accessRepo := pgStorage.NewAccessRepo(pool)
	accountRepo := pgStorage.NewAccountRepo(pool)
	eventRepo := pgStorage.NewEventRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Seed the singleton ledger state row before anything reads it.
	initialCap, ok := new(big.Int).SetString(cfg.Ledger.InitialCap, 10)
	if !ok {
		log.Fatal().Str("initial_cap", cfg.Ledger.InitialCap).Msg("Invalid ledger.initial_cap")
	}
	if err := stateRepo.Ensure(ctx, initialCap); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed ledger state")
	}

	// External gateways
	custodyClient := custodyAdapter.NewClient(cfg.Custody.URL, cfg.Custody.Timeout, log)
	oracleClient := oracleAdapter.NewClient(cfg.Oracle.URL, cfg.Oracle.Timeout, log)
	priceCache := redisStorage.NewPriceCache(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(eventRepo, log)

	accessSvc := service.NewAccessService(accessRepo, auditSvc, log)
	if cfg.Ledger.AdminAddress != "" {
		if err := accessSvc.Bootstrap(ctx, domain.Address(cfg.Ledger.AdminAddress)); err != nil {
			log.Fatal().Err(err).Str("admin", cfg.Ledger.AdminAddress).Msg("Failed to bootstrap admin roles")
		}
	}

	registrySvc := service.NewRegistryService(assetRepo, custodyClient, accessSvc, auditSvc, log)
	oracleSvc := service.NewOracleService(oracleClient, priceCache, cfg.Oracle.CacheTTL, log)
	ledgerSvc := service.NewLedgerService(
		balanceRepo,
		stateRepo,
		eventRepo,
		registrySvc,
		oracleSvc,
		accessSvc,
		custodyClient,
		transactor,
		log,
	)
	authSvc := service.NewAuthService(accountRepo, hashSvc, tokenSvc)

	// Initialize rate limit store
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		LedgerSvc:      ledgerSvc,
		AccessSvc:      accessSvc,
		RegistrySvc:    registrySvc,
		OracleSvc:      oracleSvc,
		EventRepo:      eventRepo,
		TokenSvc:       tokenSvc,
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
