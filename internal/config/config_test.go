package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setEnv(t *testing.T, vars map[string]string) {
	for _, key := range []string{
		"ENV_FILE", "PORT", "DB_TYPE", "DB_DATABASE", "DB_USER", "DB_CONNECTION_LIMIT",
		"AUTH_MODE", "AUTHZ_URL", "AUTHZ_CLIENT_ID", "JWT_SECRET", "WEBHOOK_SECRET",
		"AUTO_PROVISION", "REQUEST_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_DATABASE": "board.db",
		"AUTH_MODE":   "jwt",
		"JWT_SECRET":  "secret",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "3001" {
		t.Errorf("Expected port 3001, got %s", cfg.Port)
	}
	if cfg.DBType != "sqlite" {
		t.Errorf("Expected sqlite, got %s", cfg.DBType)
	}
	if !cfg.AutoProvision {
		t.Error("Expected auto provisioning on by default")
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("Expected 10s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.CORSOrigin != "*" {
		t.Errorf("Expected CORS origin *, got %s", cfg.CORSOrigin)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"missing database", map[string]string{"AUTH_MODE": "jwt", "JWT_SECRET": "s"}, "DB_DATABASE is required"},
		{"server db needs user", map[string]string{"DB_DATABASE": "b", "DB_TYPE": "mysql", "AUTH_MODE": "jwt", "JWT_SECRET": "s"}, "DB_USER is required"},
		{"authorizer needs url", map[string]string{"DB_DATABASE": "b"}, "AUTHZ_URL is required"},
		{"authorizer needs client", map[string]string{"DB_DATABASE": "b", "AUTHZ_URL": "http://authz"}, "AUTHZ_CLIENT_ID is required"},
		{"jwt needs secret", map[string]string{"DB_DATABASE": "b", "AUTH_MODE": "jwt"}, "JWT_SECRET is required"},
		{"bad auth mode", map[string]string{"DB_DATABASE": "b", "AUTH_MODE": "cookie"}, `AUTH_MODE must be "authorizer" or "jwt"`},
		{"bad webhook secret", map[string]string{"DB_DATABASE": "b", "AUTH_MODE": "jwt", "JWT_SECRET": "s", "WEBHOOK_SECRET": "plain"}, "WEBHOOK_SECRET must start with whsec_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.vars)
			_, err := Load()
			if err == nil || err.Error() != tt.want {
				t.Errorf("Expected error %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	setEnv(t, nil)
	path := filepath.Join(t.TempDir(), ".env")
	content := "DB_DATABASE=from-file.db\nAUTH_MODE=jwt\nJWT_SECRET=file-secret\nAUTO_PROVISION=false\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", path)
	// godotenv does not override variables that are already set, even empty ones
	for _, key := range []string{"DB_DATABASE", "AUTH_MODE", "JWT_SECRET", "AUTO_PROVISION"} {
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for _, key := range []string{"DB_DATABASE", "AUTH_MODE", "JWT_SECRET", "AUTO_PROVISION"} {
			os.Unsetenv(key)
		}
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBDatabase != "from-file.db" || cfg.JWTSecret != "file-secret" {
		t.Errorf("Expected values from env file, got %+v", cfg)
	}
	if cfg.AutoProvision {
		t.Error("Expected AUTO_PROVISION=false from env file")
	}
}
