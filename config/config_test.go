package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("VERSION_RETRY_LIMIT", "")
	t.Setenv("ALLOW_UNPUBLISHED_READS", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_EXPIRATION_HOURS", "")

	c := Load()
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, 5, c.VersionRetryLimit)
	assert.Equal(t, 24*time.Hour, c.JWTExpiration)
	assert.False(t, c.AllowUnpublishedReads)
	assert.Empty(t, c.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("VERSION_RETRY_LIMIT", "8")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "3")
	t.Setenv("ALLOW_UNPUBLISHED_READS", "true")
	t.Setenv("DB_HOST", "db")

	c := Load()
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, 8, c.VersionRetryLimit)
	assert.Equal(t, 3*time.Second, c.RequestTimeout)
	assert.True(t, c.AllowUnpublishedReads)
	assert.Contains(t, c.DSN(), "host=db")
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("VERSION_RETRY_LIMIT", "many")
	t.Setenv("ALLOW_UNPUBLISHED_READS", "sometimes")

	c := Load()
	assert.Equal(t, 5, c.VersionRetryLimit)
	assert.False(t, c.AllowUnpublishedReads)
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown", "article_id", "a1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"article_id":"a1"`)
}

func TestDSN(t *testing.T) {
	c := Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "kb", DBSSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=kb sslmode=disable", c.DSN())
}

func TestLoadAuthRateLimit(t *testing.T) {
	t.Setenv("AUTH_RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("AUTH_RATE_BURST", "")

	c := Load()
	assert.Equal(t, 0, c.AuthRateLimit)
	assert.Equal(t, 10, c.AuthRateBurst)
}
