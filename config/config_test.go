package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	conf := NewConfig()

	assert.Equal(t, "wss://stream.binance.com/ws", conf.WsEndpoint)
	assert.Equal(t, "100ms", conf.DepthUpdateInterval)
	assert.Equal(t, 3*time.Second, conf.ReconnectDelay)
	assert.Equal(t, 5, conf.MaxReconnectAttempts)
	assert.Equal(t, 20, conf.BookDepthLimit)
	assert.Equal(t, 50, conf.TradeTapeSize)
	assert.Equal(t, 500*time.Millisecond, conf.FlashDuration)
	assert.Equal(t, "btc_usdt", conf.DefaultPair)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("WS_ENDPOINT", "wss://testnet.example/ws")
	t.Setenv("MAX_RECONNECT_ATTEMPTS", "9")
	t.Setenv("RECONNECT_DELAY", "250ms")
	t.Setenv("DEFAULT_PAIR", "eth_usdt")

	conf := NewConfig()

	assert.Equal(t, "wss://testnet.example/ws", conf.WsEndpoint)
	assert.Equal(t, 9, conf.MaxReconnectAttempts)
	assert.Equal(t, 250*time.Millisecond, conf.ReconnectDelay)
	assert.Equal(t, "eth_usdt", conf.DefaultPair)
}

func TestNewConfig_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("MAX_RECONNECT_ATTEMPTS", "many")
	t.Setenv("RECONNECT_DELAY", "soon")

	conf := NewConfig()

	assert.Equal(t, 5, conf.MaxReconnectAttempts)
	assert.Equal(t, 3*time.Second, conf.ReconnectDelay)
}
