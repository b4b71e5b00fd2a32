package config

import (
	"os"
	"strconv"
	"time"

	"indicafacil_backend/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	// Pix gateway credentials
	GatewayBaseURL   string
	GatewayClientID  string
	GatewayClientKey string

	// Redis, optional. Rate limiting is skipped when unset.
	RedisAddr     string
	RedisPassword string

	// Commission retry worker
	RetryInterval time.Duration

	LogLevel string
	LogJSON  bool
}

// Load reads configuration from env, .env first if present.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	gatewayBaseURL := os.Getenv("GATEWAY_BASE_URL")
	if gatewayBaseURL == "" {
		gatewayBaseURL = "https://api.bspay.co"
	}

	gatewayClientID := os.Getenv("GATEWAY_CLIENT_ID")
	gatewayClientKey := os.Getenv("GATEWAY_CLIENT_KEY")
	if gatewayClientID == "" || gatewayClientKey == "" {
		logger.Warn("gateway credentials not set, charge creation will fail")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	retryInterval := time.Minute
	if v := os.Getenv("COMMISSION_RETRY_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			retryInterval = d
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logJSON, _ := strconv.ParseBool(os.Getenv("LOG_JSON"))

	return &Config{
		AppPort:          port,
		DatabaseURL:      dbURL,
		JWTSecret:        jwtSecret,
		GatewayBaseURL:   gatewayBaseURL,
		GatewayClientID:  gatewayClientID,
		GatewayClientKey: gatewayClientKey,
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RetryInterval:    retryInterval,
		LogLevel:         logLevel,
		LogJSON:          logJSON,
	}
}
