package config

import "os"

// Store backend selectors.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Port        string
	MetricsPort string

	// StoreBackend selects the order record store: "memory" or "redis".
	StoreBackend string
	// RedisURL is parsed with redis.ParseURL, e.g. redis://localhost:6379/0.
	RedisURL string

	// NATSURL enables trade event publishing when set; empty keeps trades
	// on the in-process recorder.
	NATSURL string

	LogLevel string
	LogFile  string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		MetricsPort:  getEnv("METRICS_PORT", "9090"),
		StoreBackend: getEnv("STORE_BACKEND", StoreMemory),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		NATSURL:      getEnv("NATS_URL", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
