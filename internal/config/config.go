package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBHost    string
	DBPort    string
	DBUser    string
	DBPass    string
	DBName    string
	DBSSLMode string

	// JWTSecret signs administrative session tokens.
	JWTSecret string
	// PayloadSecret keys the HMAC over admission payloads. Deployment-wide on
	// purpose: a per-event key would let one organizer forge another's tickets
	// if it leaked, so the event id travels inside the signed claims instead.
	PayloadSecret string

	SessionTTL     time.Duration
	PayloadLeeway  time.Duration
	LedgerQueueLen int

	Port     string
	Env      string
	LogLevel string
}

func NewConfigFromEnv() (*Config, error) {
	sessionHours, _ := strconv.Atoi(getenv("SESSION_TTL_HOURS", "24"))
	leewaySeconds, _ := strconv.Atoi(getenv("PAYLOAD_LEEWAY_SECONDS", "5"))
	queueLen, _ := strconv.Atoi(getenv("LEDGER_QUEUE_LEN", "1024"))

	cfg := &Config{
		DBHost:         getenv("DB_HOST", "localhost"),
		DBPort:         getenv("DB_PORT", "5432"),
		DBUser:         getenv("DB_USER", "postgres"),
		DBPass:         getenv("DB_PASSWORD", "postgres"),
		DBName:         getenv("DB_NAME", "ticketingdb"),
		DBSSLMode:      getenv("DB_SSLMODE", "disable"),
		JWTSecret:      getenv("JWT_SECRET", ""),
		PayloadSecret:  getenv("PAYLOAD_SECRET", ""),
		SessionTTL:     time.Duration(sessionHours) * time.Hour,
		PayloadLeeway:  time.Duration(leewaySeconds) * time.Second,
		LedgerQueueLen: queueLen,
		Port:           getenv("PORT", "3000"),
		Env:            getenv("ENV", "development"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.PayloadSecret == "" {
		return nil, errors.New("PAYLOAD_SECRET is required")
	}

	return cfg, nil
}

func getenv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
