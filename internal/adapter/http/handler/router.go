package handler

import (
	"marketplace-wallet/internal/adapter/http/middleware"
	redisStore "marketplace-wallet/internal/adapter/storage/redis"
	"marketplace-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	WalletSvc      ports.WalletService
	WithdrawalSvc  ports.WithdrawalService
	OrderSvc       ports.OrderService
	CallbackSvc    ports.PaymentCallbackService
	TokenSvc       ports.TokenService
	SigSvc         ports.SignatureService
	CallbackSecret string                     // empty = callback signature verification disabled
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

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

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

	v1 := r.Group("/api/v1")

	// --- Public routes ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- Processor callback (HMAC-verified, never JWT) ---
	callbackHandler := NewCallbackHandler(deps.CallbackSvc, deps.Logger)
	callbackAuth := middleware.CallbackAuth(deps.SigSvc, deps.CallbackSecret, deps.Logger)
	v1.POST("/payments/callback", rl("callbacks"), callbackAuth, callbackHandler.HandleCallback)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.WalletSvc)
	withdrawalHandler := NewWithdrawalHandler(deps.WithdrawalSvc)
	orderHandler := NewOrderHandler(deps.OrderSvc)

	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("", rl("wallet"), walletHandler.Get)
	}

	withdrawals := v1.Group("/withdrawals", jwtAuth)
	{
		withdrawals.POST("", rl("withdrawals"), withdrawalHandler.Create)
		withdrawals.GET("", rl("wallet"), withdrawalHandler.List)
		withdrawals.PATCH("/:id", rl("withdrawals_decide"), withdrawalHandler.Decide)
	}

	orders := v1.Group("/orders", jwtAuth)
	{
		orders.PATCH("/:id/status", rl("orders"), orderHandler.Transition)
		orders.POST("/:id/pay", rl("orders_pay"), orderHandler.Pay)
	}

	return r
}
