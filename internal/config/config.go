package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings for both the runtime host and the local
// emulator. It is built once by Load and handed to components
// explicitly; nothing reads the environment after startup.
type Config struct {
	// Runtime host settings.
	RuntimeAPI string // control endpoint, host:port or full base URL
	Handler    string // handler reference, "file.function"
	TaskRoot   string // directory where handler code is staged
	CodeKey    string // optional S3 object key to stage into TaskRoot

	// S3-compatible object storage for code bundles.
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Bucket          string

	// Emulator settings.
	HTTPAddr      string
	OpsAddr       string
	RedisAddr     string
	DatabaseURL   string
	InvokeTimeout time.Duration

	LogLevel string
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	return &Config{
		RuntimeAPI: getEnv("IGNIS_RUNTIME_API", "127.0.0.1:9001"),
		Handler:    getEnv("IGNIS_HANDLER", "echo.handler"),
		TaskRoot:   getEnv("IGNIS_TASK_ROOT", "/var/task"),
		CodeKey:    getEnv("IGNIS_CODE_KEY", ""),

		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Bucket:          getEnv("S3_BUCKET", "ignis-code"),

		HTTPAddr:      getEnv("HTTP_ADDR", ":9001"),
		OpsAddr:       getEnv("OPS_ADDR", ":9102"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		InvokeTimeout: getDurationEnv("IGNIS_INVOKE_TIMEOUT", 60*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getDurationEnv parses a duration from the environment, accepting
// either a Go duration string or a plain number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
