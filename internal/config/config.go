package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var DefaultEnvConfig *envConfig

type envConfig struct {
	// server config
	APP_PORT         string
	UPLOAD_MAX_BYTES int64
	// database config
	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_CONN_MAX_LIFETIME time.Duration
	DB_MAX_IDLE_CONNS    int
	DB_MAX_OPEN_CONNS    int
	// logger config
	LOG_FILE_PATH string
	LOG_LEVEL     string
	// report config
	REPORT_DATE_FORMAT      string
	REPORT_TEMPLATE_PATH    string
	REPORT_MAX_COLUMN_WIDTH float64
}

// LoadEnvConfig reads .env (when present) and the process environment.
func LoadEnvConfig(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	DefaultEnvConfig = &envConfig{
		APP_PORT:                getEnvString("APP_PORT", "8080"),
		UPLOAD_MAX_BYTES:        int64(getEnvInt("UPLOAD_MAX_BYTES", 32<<20)),
		DB_HOST:                 getEnvString("DB_HOST", "localhost"),
		DB_PORT:                 getEnvInt("DB_PORT", 5432),
		DB_USER:                 getEnvString("DB_USER", "postgres"),
		DB_PASSWORD:             getEnvString("DB_PASSWORD", "postgres"),
		DB_NAME:                 getEnvString("DB_NAME", "postgres"),
		DB_SSL_MODE:             getEnvString("DB_SSL_MODE", "disable"),
		DB_CONN_MAX_LIFETIME:    getEnvDuration("DB_CONN_MAX_LIFETIME", 20*time.Minute),
		DB_MAX_IDLE_CONNS:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DB_MAX_OPEN_CONNS:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
		LOG_FILE_PATH:           getEnvString("LOG_FILE_PATH", ""),
		LOG_LEVEL:               getEnvString("LOG_LEVEL", "info"),
		REPORT_DATE_FORMAT:      getEnvString("REPORT_DATE_FORMAT", "2006-01-02 15:04:05"),
		REPORT_TEMPLATE_PATH:    getEnvString("REPORT_TEMPLATE_PATH", ""),
		REPORT_MAX_COLUMN_WIDTH: getEnvFloat("REPORT_MAX_COLUMN_WIDTH", 50),
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
