package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "authsvc_test")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")
	os.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.JWT.Secret == "" {
		t.Fatalf("JWT secret not picked up from env")
	}
}

func TestLoadConfig_TTLDefaults(t *testing.T) {
	os.Unsetenv("JWT_ACCESS_TOKEN_TTL")
	os.Unsetenv("JWT_REFRESH_TOKEN_TTL")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.JWT.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("access TTL default = %v, want 15m", cfg.JWT.AccessTokenTTL)
	}
	if cfg.JWT.RefreshTokenTTL != 10080*time.Minute {
		t.Fatalf("refresh TTL default = %v, want 7d", cfg.JWT.RefreshTokenTTL)
	}
}
