package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Serving
	ListenAddr  string // websocket frame gateway
	MetricsAddr string // prometheus + health

	// Data source: "sim", "sqlite", "ws" or "redis"
	DataSource string
	Symbol     string

	// sqlite source
	SQLitePath string
	// Persist live candles to sqlite even when it is not the source.
	PersistCandles bool

	// ws source
	WSFeedURL string

	// redis source
	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	// Candle shape
	CandleIntervalS int // bucket size in seconds (sim source)
	HistoryPageSize int

	// Chart surface
	Width  float64
	Height float64

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		DataSource: getEnv("DATA_SOURCE", "sim"),
		Symbol:     getEnv("SYMBOL", "NIFTY"),

		SQLitePath:     getEnv("SQLITE_PATH", "data/candles.db"),
		PersistCandles: getEnvBool("PERSIST_CANDLES", false),

		WSFeedURL: getEnv("WS_FEED_URL", "ws://localhost:9001/ws"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisChannel:  getEnv("REDIS_CHANNEL", "pub:candle:NIFTY"),

		CandleIntervalS: getEnvInt("CANDLE_INTERVAL_S", 60),
		HistoryPageSize: getEnvInt("HISTORY_PAGE_SIZE", 250),

		Width:  float64(getEnvInt("CHART_WIDTH", 1280)),
		Height: float64(getEnvInt("CHART_HEIGHT", 720)),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid bool for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return b
}
