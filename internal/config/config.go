package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	LockLocal = "local"
	LockRedis = "redis"
)

type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	StoreDriver   string
	StoreTimeout  time.Duration
	MongoURI      string
	MongoDatabase string

	JWTSecret    string
	JWTExpiresIn time.Duration

	RedisHost     string
	RedisPassword string

	LockDriver string
	LockTTL    time.Duration

	ProductCacheTTL time.Duration
	CartRateLimit   int
	APIRateLimit    int

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	CORSOrigins []string
}

// Load charge .env s'il existe puis lit l'environnement.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info("no .env file found, using process environment")
	} else {
		slog.Info(".env file loaded")
	}
	return FromEnv()
}

// FromEnv construit la configuration depuis les variables d'environnement.
func FromEnv() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		StoreTimeout:  getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017/flipcart"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "flipcart"),

		JWTSecret:    getEnv("JWT_SECRET", "secret"),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LockDriver: strings.ToLower(getEnv("LOCK_DRIVER", LockLocal)),
		LockTTL:    getEnvDuration("LOCK_TTL", 10*time.Second),

		ProductCacheTTL: getEnvDuration("PRODUCT_CACHE_TTL", 10*time.Minute),
		CartRateLimit:   getEnvInt("CART_RATE_LIMIT", 20),
		APIRateLimit:    getEnvInt("API_RATE_LIMIT", 100),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
