package config

import (
	"os"
	"strconv"
	"time"
)

var DebugMode = os.Getenv("DEBUG_MODE") == "true"

type Config struct {
	// Base websocket endpoint. One socket is opened per (pair, stream-type)
	// under this path, e.g. <endpoint>/btcusdt@aggTrade.
	WsEndpoint string

	// Server-side aggregation interval of the depth-diff stream.
	DepthUpdateInterval string

	ReconnectDelay       time.Duration
	MaxReconnectAttempts int

	BookDepthLimit int
	TradeTapeSize  int
	FlashDuration  time.Duration

	DefaultPair string

	ListenAddr  string
	MetricsAddr string
}

func NewConfig() *Config {
	return &Config{
		WsEndpoint:           getEnv("WS_ENDPOINT", "wss://stream.binance.com/ws"),
		DepthUpdateInterval:  getEnv("DEPTH_UPDATE_INTERVAL", "100ms"),
		ReconnectDelay:       getDurationEnv("RECONNECT_DELAY", 3*time.Second),
		MaxReconnectAttempts: getIntEnv("MAX_RECONNECT_ATTEMPTS", 5),
		BookDepthLimit:       getIntEnv("BOOK_DEPTH_LIMIT", 20),
		TradeTapeSize:        getIntEnv("TRADE_TAPE_SIZE", 50),
		FlashDuration:        getDurationEnv("FLASH_DURATION", 500*time.Millisecond),
		DefaultPair:          getEnv("DEFAULT_PAIR", "btc_usdt"),
		ListenAddr:           getEnv("LISTEN_ADDR", ":8090"),
		MetricsAddr:          getEnv("METRICS_ADDR", ":8080"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
