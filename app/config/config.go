package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the catalog service
type Config struct {
	// Server
	Port     string
	Host     string
	LogLevel string

	// Database
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseSSLMode  string

	// Kratos
	KratosPublicURL string
	KratosAdminURL  string
	KratosTimeout   time.Duration

	// Federated sign-in
	OIDCProviders []string

	// Session validation cache
	SessionCacheTTL time.Duration

	// Backend token
	BackendTokenSecret   string
	BackendTokenIssuer   string
	BackendTokenAudience string
	BackendTokenTTL      time.Duration

	// Rate limiting (auth endpoints, per IP)
	AuthRateLimit float64
	AuthRateBurst int

	// CORS
	AllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{}

	// Server configuration
	config.Port = getEnvOrDefault("PORT", "9600")
	config.Host = getEnvOrDefault("HOST", "0.0.0.0")
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Database configuration
	config.DatabaseHost = getEnvOrDefault("DB_HOST", "catalog-postgres")
	config.DatabasePort = getEnvOrDefault("DB_PORT", "5432")
	config.DatabaseName = getEnvOrDefault("DB_NAME", "catalog_db")
	config.DatabaseUser = getEnvOrDefault("DB_USER", "catalog_user")
	config.DatabasePassword = os.Getenv("DB_PASSWORD")
	if config.DatabasePassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	config.DatabaseSSLMode = getEnvOrDefault("DB_SSL_MODE", "require")

	// Kratos configuration
	config.KratosPublicURL = os.Getenv("KRATOS_PUBLIC_URL")
	if config.KratosPublicURL == "" {
		return nil, fmt.Errorf("KRATOS_PUBLIC_URL is required")
	}

	config.KratosAdminURL = os.Getenv("KRATOS_ADMIN_URL")
	if config.KratosAdminURL == "" {
		return nil, fmt.Errorf("KRATOS_ADMIN_URL is required")
	}

	var err error
	config.KratosTimeout, err = getDurationEnv("KRATOS_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	config.OIDCProviders = getListEnv("OIDC_PROVIDERS", []string{"google"})

	config.SessionCacheTTL, err = getDurationEnv("SESSION_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	// Backend token configuration
	config.BackendTokenSecret = os.Getenv("BACKEND_TOKEN_SECRET")
	config.BackendTokenIssuer = getEnvOrDefault("BACKEND_TOKEN_ISSUER", "modelhub")
	config.BackendTokenAudience = getEnvOrDefault("BACKEND_TOKEN_AUDIENCE", "modelhub-services")
	config.BackendTokenTTL, err = getDurationEnv("BACKEND_TOKEN_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	// Rate limiting
	rateStr := getEnvOrDefault("AUTH_RATE_LIMIT", "5")
	config.AuthRateLimit, err = strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT: %w", err)
	}

	burstStr := getEnvOrDefault("AUTH_RATE_BURST", "10")
	config.AuthRateBurst, err = strconv.Atoi(burstStr)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_BURST: %w", err)
	}

	config.AllowedOrigins = getListEnv("ALLOWED_ORIGINS", []string{"http://localhost:5173"})

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}

	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %s", c.Port)
	}

	if c.KratosTimeout <= 0 {
		return fmt.Errorf("kratos timeout must be positive")
	}

	if c.SessionCacheTTL <= 0 {
		return fmt.Errorf("session cache TTL must be positive")
	}

	if c.BackendTokenSecret != "" && len(c.BackendTokenSecret) < 32 {
		return fmt.Errorf("backend token secret must be at least 32 bytes")
	}

	if c.AuthRateLimit <= 0 {
		return fmt.Errorf("auth rate limit must be positive")
	}

	if c.AuthRateBurst < 1 {
		return fmt.Errorf("auth rate burst must be at least 1")
	}

	return nil
}

// DatabaseDSN builds the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// BackendTokensEnabled reports whether validated sessions should carry
// a signed backend token.
func (c *Config) BackendTokensEnabled() bool {
	return c.BackendTokenSecret != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return duration, nil
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
