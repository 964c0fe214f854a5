package handler

import (
	"custody-ledger/internal/adapter/http/middleware"
	redisStore "custody-ledger/internal/adapter/storage/redis"
	"custody-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	AccessSvc      ports.AccessService
	RegistrySvc    ports.RegistryService
	OracleSvc      ports.OracleService
	EventRepo      ports.EventRepository
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	ledgerHandler := NewLedgerHandler(deps.LedgerSvc, deps.AccessSvc, deps.OracleSvc, deps.EventRepo)

	ledger := v1.Group("/ledger", jwtAuth)
	{
		ledger.POST("/deposits/native", rl("ledger_deposit"), ledgerHandler.DepositNative)
		ledger.POST("/deposits/assets", rl("ledger_deposit"), ledgerHandler.DepositAsset)
		ledger.POST("/withdrawals/native", rl("ledger_withdraw"), ledgerHandler.WithdrawNative)
		ledger.POST("/withdrawals/assets", rl("ledger_withdraw"), ledgerHandler.WithdrawAsset)

		ledger.GET("/balance", rl("query"), ledgerHandler.GetInternalBalance)
		ledger.GET("/balances/:asset", rl("query"), ledgerHandler.GetRawBalance)
		ledger.GET("/state", rl("query"), ledgerHandler.GetState)
		ledger.GET("/price", rl("query"), ledgerHandler.GetPrice)
		ledger.GET("/events", rl("query"), ledgerHandler.ListEvents)
	}

	// --- Admin routes (role checks enforced by the services) ---
	adminHandler := NewAdminHandler(deps.RegistrySvc, deps.LedgerSvc, deps.AccessSvc)
	admin := v1.Group("/admin", jwtAuth)
	{
		admin.PUT("/assets", rl("admin"), adminHandler.ConfigureAsset)
		admin.GET("/assets/:asset", rl("query"), adminHandler.GetAsset)
		admin.PUT("/cap", rl("admin"), adminHandler.SetCap)
		admin.POST("/pause", rl("admin"), adminHandler.Pause)
		admin.POST("/unpause", rl("admin"), adminHandler.Unpause)
		admin.POST("/roles", rl("admin"), adminHandler.GrantRole)
	}

	return r
}
