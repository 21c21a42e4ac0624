package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"CUSTODIA_ADDR", "JWT_SIGNING_KEY", "CUSTODIA_DEV_MODE", "DATABASE_URL",
		"REDIS_URL", "RATE_LIMIT_PER_MINUTE", "KAFKA_BROKERS", "KAFKA_AUDIT_TOPIC",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "custodia", cfg.JWTIssuer)
	assert.Equal(t, "custodia-api", cfg.JWTAudience)
	assert.False(t, cfg.DevMode)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 120, cfg.Redis.RateLimit)
	assert.Equal(t, time.Minute, cfg.Redis.Window)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "custodia.audit", cfg.Kafka.AuditTopic)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CUSTODIA_ADDR", ":9090")
	t.Setenv("JWT_SIGNING_KEY", "prod-key")
	t.Setenv("CUSTODIA_DEV_MODE", "true")
	t.Setenv("DATABASE_URL", "postgres://localhost/custodia")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("KAFKA_BROKERS", "broker-a:9092,broker-b:9092")
	t.Setenv("KAFKA_AUDIT_TOPIC", "custody.events")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "prod-key", cfg.JWTSigningKey)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "postgres://localhost/custodia", cfg.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 30, cfg.Redis.RateLimit)
	assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "custody.events", cfg.Kafka.AuditTopic)
}

func TestEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "plenty")

	cfg := FromEnv()
	assert.Equal(t, 120, cfg.Redis.RateLimit)
}
