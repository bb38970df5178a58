package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/localnerve/recipe-board/internal/config"
	"github.com/localnerve/recipe-board/internal/utils"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Authorizer   string            `json:"authorizer"`
	Redis        string            `json:"redis"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(component, message string, err error) {
	r.Status = "unhealthy"
	r.Details[component+"_error"] = err.Error()
	if r.ErrorMessage == "" {
		r.ErrorMessage = fmt.Sprintf("%s: %v", message, err)
	} else {
		r.ErrorMessage += fmt.Sprintf("; %s: %v", message, err)
	}
	log.Printf("Health check failed - %s: %v", message, err)
}

// Pinger is a dependency that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck performs a comprehensive health check of the service. redis
// may be nil when webhook de-duplication is not configured.
func HealthCheck(cfg *config.Config, db *gorm.DB, redis Pinger) HealthCheckResult {
	result := HealthCheckResult{
		Status:     "healthy",
		Authorizer: "skipped",
		Redis:      "skipped",
		Details:    make(map[string]string),
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.fail("database", "Database connection error", err)
	} else if err := sqlDB.Ping(); err != nil {
		result.Database = "unreachable"
		result.fail("database_ping", "Database ping failed", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	// Check Authorizer connectivity
	if cfg.AuthMode == config.AuthModeAuthorizer {
		if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
			result.Authorizer = "unreachable"
			result.fail("authorizer", "Authorizer ping failed", err)
		} else {
			result.Authorizer = "ok"
			result.Details["authorizer_url"] = cfg.AuthzURL
		}
	}

	if redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
		defer cancel()
		if err := redis.Ping(ctx); err != nil {
			result.Redis = "unreachable"
			result.fail("redis", "Redis ping failed", err)
		} else {
			result.Redis = "ok"
		}
	}

	if result.Status == "healthy" {
		log.Println("Health check passed - all systems operational")
	}

	return result
}
