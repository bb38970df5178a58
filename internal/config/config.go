package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth modes
const (
	AuthModeAuthorizer = "authorizer"
	AuthModeJWT        = "jwt"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port       string
	CORSOrigin string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Authentication configuration
	AuthMode      string
	AuthzURL      string
	AuthzClientID string
	JWTSecret     string

	// Identity webhooks
	WebhookSecret string
	RedisURL      string

	// Boards
	AutoProvision bool

	// Client
	RequestTimeout time.Duration
}

// Load loads configuration from environment variables, after loading the
// dotenv file named by ENV_FILE if there is one
func Load() (*Config, error) {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load ENV_FILE %s: %w", envFile, err)
		}
		log.Printf("Loaded environment from %s", envFile)
	}

	cfg := &Config{
		Port:              getEnv("PORT", "3001"),
		CORSOrigin:        getEnv("CORS_ORIGIN", "*"),
		DBType:            strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		AuthMode:          strings.ToLower(getEnv("AUTH_MODE", AuthModeAuthorizer)),
		AuthzURL:          getEnv("AUTHZ_URL", ""),
		AuthzClientID:     getEnv("AUTHZ_CLIENT_ID", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		WebhookSecret:     getEnv("WEBHOOK_SECRET", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		AutoProvision:     getEnvAsBool("AUTO_PROVISION", true),
		RequestTimeout:    ClientTimeout(),
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBType != "sqlite" && cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if cfg.DBConnectionLimit < 1 {
		return nil, fmt.Errorf("DB_CONNECTION_LIMIT must be positive")
	}

	switch cfg.AuthMode {
	case AuthModeAuthorizer:
		if cfg.AuthzURL == "" {
			return nil, fmt.Errorf("AUTHZ_URL is required")
		}
		if cfg.AuthzClientID == "" {
			return nil, fmt.Errorf("AUTHZ_CLIENT_ID is required")
		}
	case AuthModeJWT:
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	default:
		return nil, fmt.Errorf("AUTH_MODE must be %q or %q", AuthModeAuthorizer, AuthModeJWT)
	}

	if cfg.WebhookSecret != "" && !strings.HasPrefix(cfg.WebhookSecret, "whsec_") {
		return nil, fmt.Errorf("WEBHOOK_SECRET must start with whsec_")
	}

	return cfg, nil
}

// ClientTimeout is the default per request timeout of API clients.
// It needs none of the server settings, so clients read it directly.
func ClientTimeout() time.Duration {
	return time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
