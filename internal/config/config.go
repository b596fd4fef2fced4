package config

import (
	"os"
	"strconv"

	"github.com/draughtlab/kegmon/pkg/db"
	"github.com/joho/godotenv"
)

// Config holds application configuration read from the environment.
type Config struct {
	AppName     string
	Environment string
	LogLevel    string

	// DefaultSiteName is the site seeded at startup when the database has
	// no sites yet.
	DefaultSiteName string

	MetricsAddr string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string

	DB db.Config
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:         getEnv("APP_NAME", "kegmon"),
		Environment:     getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DefaultSiteName: getEnv("KEGMON_DEFAULT_SITE", "default"),
		MetricsAddr:     getEnv("METRICS_ADDR", ":9090"),

		OtelEnabled:          getEnvBool("OTEL_ENABLED", false),
		OtelExporterEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OtelExporterProtocol: getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),

		DB: db.Config{
			Type:            getEnv("DB_TYPE", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "kegmon"),
			User:            getEnv("DB_USER", "kegmon"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			Path:            getEnv("DB_PATH", "kegmon.db"),
			MaxIdleConn:     getEnvInt("DB_MAX_IDLE_CONN", 5),
			MaxOpenConn:     getEnvInt("DB_MAX_OPEN_CONN", 25),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("DB_CONN_MAX_IDLE_TIME", 60),
		},
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
