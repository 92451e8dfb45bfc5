package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_DRIVER", "STORE_TIMEOUT", "JWT_SECRET", "LOCK_DRIVER", "CORS_ORIGINS", "CART_RATE_LIMIT", "REDIS_HOST"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	if cfg.Port != "8080" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.StoreDriver != StoreMongo {
		t.Fatalf("store driver = %q", cfg.StoreDriver)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Fatalf("store timeout = %v", cfg.StoreTimeout)
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("jwt secret = %q", cfg.JWTSecret)
	}
	if cfg.LockDriver != LockLocal {
		t.Fatalf("lock driver = %q", cfg.LockDriver)
	}
	if cfg.CartRateLimit != 20 {
		t.Fatalf("cart rate limit = %d", cfg.CartRateLimit)
	}
	if cfg.RedisHost != "" {
		t.Fatalf("redis host = %q", cfg.RedisHost)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("cors origins = %v", cfg.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("CART_RATE_LIMIT", "not-a-number")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg := FromEnv()
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("store driver = %q", cfg.StoreDriver)
	}
	if cfg.StoreTimeout != 250*time.Millisecond {
		t.Fatalf("store timeout = %v", cfg.StoreTimeout)
	}
	if cfg.CartRateLimit != 20 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.CartRateLimit)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("cors origins = %v", cfg.CORSOrigins)
	}
}
