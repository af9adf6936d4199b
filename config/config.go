package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret     []byte
	JWTExpiration time.Duration

	// RedisURL enables the identity cache when non-empty.
	RedisURL         string
	IdentityCacheTTL time.Duration

	VersionRetryLimit int
	RequestTimeout    time.Duration

	// AuthRateLimit is the per-client budget for register and login,
	// in requests per minute. Zero disables it.
	AuthRateLimit int
	AuthRateBurst int

	// AllowUnpublishedReads turns off the read policy for article(id) and
	// articles(status). A signed-in caller's unfiltered listing then
	// includes other authors' drafts. Anonymous unfiltered listings stay
	// published-only.
	AllowUnpublishedReads bool
}

// Load reads .env when present and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	return Config{
		Port:     getenv("PORT", "8080"),
		GinMode:  getenv("GIN_MODE", "release"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBDriver:   getenv("DB_DRIVER", "postgres"),
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", "postgres"),
		DBName:     getenv("DB_NAME", "knowledge_base"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),

		JWTSecret:     []byte(getenv("JWT_SECRET", "your-secret-key-change-this-in-production")),
		JWTExpiration: time.Duration(getenvInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,

		RedisURL:         getenv("REDIS_URL", ""),
		IdentityCacheTTL: time.Duration(getenvInt("IDENTITY_CACHE_TTL_SECONDS", 30)) * time.Second,

		VersionRetryLimit:     getenvInt("VERSION_RETRY_LIMIT", 5),
		RequestTimeout:        time.Duration(getenvInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
		AuthRateLimit:         getenvInt("AUTH_RATE_LIMIT_PER_MINUTE", 30),
		AuthRateBurst:         getenvInt("AUTH_RATE_BURST", 10),
		AllowUnpublishedReads: getenvBool("ALLOW_UNPUBLISHED_READS", false),
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		log.Printf("invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("invalid %s=%q, using %t", key, value, fallback)
		return fallback
	}
	return b
}
