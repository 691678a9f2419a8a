package di

import (
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"modelhub/app/config"
	"modelhub/app/driver/cache"
	"modelhub/app/driver/kratos"
	"modelhub/app/driver/postgres"
	"modelhub/app/driver/token"
	"modelhub/app/port"
	"modelhub/app/rest"
	"modelhub/app/rest/handlers"
	"modelhub/app/session"
	"modelhub/app/usecase"
)

// Container holds all dependencies for the application
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Drivers
	DB           *postgres.DB
	KratosClient *kratos.Client
	Provider     *kratos.Provider

	// Session
	Store        *session.Store
	SessionCache *cache.SessionCache

	// Usecases
	CatalogUsecase  port.CatalogUsecase
	PurchaseUsecase port.PurchaseUsecase
	ValidateUsecase *usecase.ValidateSessionUseCase
}

// NewContainer creates and initializes a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	container := &Container{
		Config: cfg,
		Logger: logger,
	}

	var err error

	// Initialize database connection
	container.DB, err = postgres.NewConnection(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize Kratos client and identity provider
	container.KratosClient, err = kratos.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Kratos client: %w", err)
	}
	container.Provider = kratos.NewProvider(container.KratosClient, logger)

	// The session store consumes the provider's change stream from here on
	container.Store = session.NewStore(container.Provider, logger)

	// Initialize repositories
	modelRepository := postgres.NewModelRepository(container.DB.Pool(), logger)
	purchaseRepository := postgres.NewPurchaseRepository(container.DB.Pool(), logger)

	// Initialize usecases
	container.CatalogUsecase = usecase.NewCatalogUseCase(modelRepository, logger)
	container.PurchaseUsecase = usecase.NewPurchaseUseCase(modelRepository, purchaseRepository, logger)

	container.SessionCache = cache.NewSessionCache(cfg.SessionCacheTTL)
	var issuer port.TokenIssuer
	if cfg.BackendTokensEnabled() {
		issuer = token.NewJWTIssuer(token.JWTConfig{
			Secret:   cfg.BackendTokenSecret,
			Issuer:   cfg.BackendTokenIssuer,
			Audience: cfg.BackendTokenAudience,
			TTL:      cfg.BackendTokenTTL,
		})
	}
	container.ValidateUsecase = usecase.NewValidateSessionUseCase(container.Provider, container.SessionCache, issuer, logger)

	logger.Info("container initialized with full dependency stack")

	return container, nil
}

// CreateRouter creates and returns a fully configured Echo router
func (c *Container) CreateRouter() *echo.Echo {
	routerConfig := rest.RouterConfig{
		Logger:          c.Logger,
		Store:           c.Store,
		CatalogUsecase:  c.CatalogUsecase,
		PurchaseUsecase: c.PurchaseUsecase,
		ValidateUsecase: c.ValidateUsecase,
		HealthChecks: map[string]handlers.HealthChecker{
			"database": c.DB,
			"kratos":   c.KratosClient,
		},
		OIDCProviders:  c.Config.OIDCProviders,
		AllowedOrigins: c.Config.AllowedOrigins,
		AuthRateLimit:  c.Config.AuthRateLimit,
		AuthRateBurst:  c.Config.AuthRateBurst,
		EnableDebug:    c.Config.LogLevel == "debug",
	}

	return rest.NewRouter(routerConfig)
}

// Close closes all resources
func (c *Container) Close() error {
	// Closing the store also closes the provider's change stream
	if c.Store != nil {
		c.Store.Close()
	}

	if c.SessionCache != nil {
		c.SessionCache.Stop()
	}

	if c.DB != nil {
		c.DB.Close()
	}

	c.Logger.Info("container closed")
	return nil
}
