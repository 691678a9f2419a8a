package rest

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"modelhub/app/port"
	"modelhub/app/rest/handlers"
	custommw "modelhub/app/rest/middleware"
	"modelhub/app/session"
	"modelhub/app/usecase"
)

// RouterConfig holds router configuration
type RouterConfig struct {
	Logger          *slog.Logger
	Store           *session.Store
	CatalogUsecase  port.CatalogUsecase
	PurchaseUsecase port.PurchaseUsecase
	ValidateUsecase *usecase.ValidateSessionUseCase
	HealthChecks    map[string]handlers.HealthChecker
	OIDCProviders   []string
	AllowedOrigins  []string
	AuthRateLimit   float64
	AuthRateBurst   int
	EnableDebug     bool
}

// NewRouter creates and configures the Echo router
func NewRouter(config RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Debug = config.EnableDebug

	// Create handlers
	authHandler := handlers.NewAuthHandler(config.Store, config.ValidateUsecase, config.OIDCProviders, config.Logger)
	modelHandler := handlers.NewModelHandler(config.CatalogUsecase, config.Logger)
	purchaseHandler := handlers.NewPurchaseHandler(config.PurchaseUsecase, config.Logger)
	healthHandler := handlers.NewHealthHandler(config.Logger, config.HealthChecks)

	// Create middleware
	gate := custommw.NewSessionGate(config.Store, config.Logger)
	rateLimiter := custommw.NewRateLimiter(config.AuthRateLimit, config.AuthRateBurst)

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(custommw.NewCORSMiddleware(custommw.DefaultCORSConfig(config.AllowedOrigins)))
	e.Use(custommw.SecurityHeaders())
	e.Use(rateLimiter.RateLimit())

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}, error=${error}\n",
	}))

	// API versioning
	v1 := e.Group("/v1")

	// Health endpoints (no auth required)
	v1.GET("/health", healthHandler.HealthCheck)
	v1.GET("/ready", healthHandler.ReadinessCheck)
	v1.GET("/live", healthHandler.LivenessCheck)

	// Authentication endpoints
	auth := v1.Group("/auth")

	// Public auth endpoints
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/login/:provider", authHandler.FederatedSignIn)
	auth.POST("/recovery", authHandler.Recovery)
	auth.GET("/session", authHandler.Session)

	// Session validation endpoint (for other services)
	auth.GET("/validate", authHandler.Validate)

	// Protected auth endpoints
	authProtected := auth.Group("")
	authProtected.Use(gate.Protect())
	authProtected.POST("/logout", authHandler.Logout)
	authProtected.PUT("/profile", authHandler.UpdateProfile)

	// Public catalog endpoints
	v1.GET("/models", modelHandler.List)
	v1.GET("/models/featured", modelHandler.Featured)
	v1.GET("/models/frameworks", modelHandler.Frameworks)
	v1.GET("/models/:id", modelHandler.Get)

	// Protected catalog endpoints
	catalog := v1.Group("")
	catalog.Use(gate.Protect())
	catalog.POST("/models", modelHandler.Create)
	catalog.PUT("/models/:id", modelHandler.Update)
	catalog.DELETE("/models/:id", modelHandler.Delete)
	catalog.GET("/my-models", modelHandler.MyModels)

	// Protected purchase endpoints
	catalog.POST("/purchases/:modelID", purchaseHandler.Purchase)
	catalog.POST("/purchases/status", purchaseHandler.Status)
	catalog.GET("/my-purchases", purchaseHandler.MyPurchases)

	return e
}
