package config

import (
	"os"
	"strconv"
	"time"

	"cinebook/internal/cache"
	"cinebook/internal/database"
	"cinebook/internal/external"
	"cinebook/internal/messaging"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Booking policy
	HoldTTL       time.Duration // pending holds older than this are swept
	SweepInterval time.Duration
	Currency      string

	Database database.Config
	Cache    cache.Config
	NATS     messaging.Config
	Payment  external.PaymentConfig
	Catalog  external.CatalogConfig
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		HoldTTL:       time.Duration(getEnvInt("BOOKING_HOLD_TTL_MIN", 60)) * time.Minute,
		SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL_SEC", 30)) * time.Second,
		Currency:      getEnv("BOOKING_CURRENCY", "USD"),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "cinebook"),
			Password:           getEnv("DB_PASSWORD", "cinebook123"),
			DBName:             getEnv("DB_NAME", "cinebook"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Cache: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			TTL:      time.Duration(getEnvInt("CACHE_TTL_SEC", 60)) * time.Second,
			Enabled:  getEnv("CACHE_ENABLED", "true") == "true",
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "cinebook"),
			ClientID:  getEnv("NATS_CLIENT_ID", "cinebook-api"),
			Enabled:   getEnv("NATS_ENABLED", "false") == "true",
		},

		Payment: external.PaymentConfig{
			BaseURL:      getEnv("PAYMENT_GATEWAY_URL", "https://gateway.example.com/checkout"),
			MerchantSlug: getEnv("PAYMENT_MERCHANT_SLUG", ""),
			Password:     getEnv("PAYMENT_PASSWORD", ""),
			Timeout:      time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 10)) * time.Second,
		},

		Catalog: external.CatalogConfig{
			BaseURL: getEnv("CATALOG_URL", "https://api.themoviedb.org/3"),
			APIKey:  getEnv("CATALOG_API_KEY", ""),
			Timeout: time.Duration(getEnvInt("CATALOG_TIMEOUT_SEC", 10)) * time.Second,
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
