package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all process configuration taken from the environment
type Config struct {
	Server   ServerConfig
	Render   RenderConfig
	Redis    RedisConfig
	LogLevel string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  int
	WriteTimeout int
	MaxBodyMB    int
	StaticDir    string
}

// RenderConfig holds postcard rendering configuration
type RenderConfig struct {
	Workers    int
	KioskPath  string // TOML or YAML kiosk file
	QueueDepth int
}

// RedisConfig holds Redis-related configuration. An empty Addr disables the
// postcard notifier.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	Channel      string
	Stream       string
	StreamMaxLen int64
}

// Enabled reports whether a Redis address was configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("SERVER_PORT", 5000),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 60),
			MaxBodyMB:    getEnvAsInt("SERVER_MAX_BODY_MB", 32),
			StaticDir:    getEnv("STATIC_DIR", "static"),
		},
		Render: RenderConfig{
			Workers:    getEnvAsInt("RENDER_WORKERS", 1),
			KioskPath:  getEnv("KIOSK_CONFIG", "config.toml"),
			QueueDepth: getEnvAsInt("RENDER_QUEUE_DEPTH", 8),
		},
		Redis: RedisConfig{
			Addr:         getRedisAddr(),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			Channel:      getEnv("REDIS_CHANNEL", "kiosk:postcards"),
			Stream:       getEnv("REDIS_STREAM", "kiosk:postcards:log"),
			StreamMaxLen: int64(getEnvAsInt("REDIS_STREAM_MAXLEN", 10000)),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// getRedisAddr prefers REDIS_URL (with or without the redis:// scheme) over
// REDIS_ADDR. Neither set means no Redis.
func getRedisAddr() string {
	if url := os.Getenv("REDIS_URL"); url != "" {
		return strings.TrimPrefix(url, "redis://")
	}
	return getEnv("REDIS_ADDR", "")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
