package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "REDIS_DB", "SESSION_CACHE_TTL", "GATEWAY_TIMEOUT", "RATE_LIMIT_RPS", "DB_HOST"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, 60*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, float64(20), cfg.RateLimit.RPS)
	assert.False(t, cfg.Database.Complete())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_CACHE_TTL", "30m")
	t.Setenv("GATEWAY_URL", "https://hooks.example/generate")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "builder")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "campaigns")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 30*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "https://hooks.example/generate", cfg.Gateway.URL)
	assert.True(t, cfg.Database.Complete())
	assert.Equal(t, "host=db port=5432 user=builder password=secret dbname=campaigns sslmode=disable", cfg.Database.DSN())
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "two")
	t.Setenv("SESSION_IDLE_TIMEOUT", "forever")
	t.Setenv("RATE_LIMIT_RPS", "-1")

	cfg := Load()
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTimeout)
	assert.Equal(t, float64(20), cfg.RateLimit.RPS)
}

func TestRabbitMQConfig_URL(t *testing.T) {
	c := RabbitMQConfig{Host: "mq", Port: "5672", User: "guest", Password: "guest"}
	assert.Equal(t, "amqp://guest:guest@mq:5672/", c.URL())
}
