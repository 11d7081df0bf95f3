package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// DatabaseConfig holds the postgres connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// Complete reports whether every required setting is present
func (c DatabaseConfig) Complete() bool {
	return c.Host != "" && c.Port != "" && c.User != "" && c.Password != "" && c.Name != ""
}

// RedisConfig holds the session cache settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RabbitMQConfig holds the broker settings
type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

// URL returns the AMQP url (guest user automatically uses / vhost)
func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Password, c.Host, c.Port)
}

// GatewayConfig holds the generation webhook settings
type GatewayConfig struct {
	URL     string
	Timeout time.Duration
}

// RateLimitConfig holds the per-IP request budget
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Config is the service configuration read from the environment
type Config struct {
	Port     string
	BasePath string
	LogLevel string

	Database  DatabaseConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Gateway   GatewayConfig
	RateLimit RateLimitConfig

	JWTSecret          string
	SentryDSN          string
	Environment        string
	SessionIdleTimeout time.Duration
	SweepInterval      time.Duration
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		BasePath: getEnv("BASE_PATH", "/campaign-builder-api"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", ""),
			User:     getEnv("DB_USER", ""),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", ""),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("SESSION_CACHE_TTL", 24*time.Hour),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASS", "guest"),
		},
		Gateway: GatewayConfig{
			URL:     getEnv("GATEWAY_URL", ""),
			Timeout: getEnvAsDuration("GATEWAY_TIMEOUT", 60*time.Second),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 40),
		},

		JWTSecret:          getEnv("JWT_SECRET", ""),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		Environment:        getEnv("ENVIRONMENT", "development"),
		SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		SweepInterval:      getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),
	}
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		logrus.Warnf("Invalid integer for %s (%q), using default %d", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		logrus.Warnf("Invalid number for %s (%q), using default %g", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		logrus.Warnf("Invalid duration for %s (%q), using default %s", key, raw, defaultValue)
		return defaultValue
	}
	return value
}
