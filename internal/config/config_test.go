package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestLoad_MemoryDriverSkipsDatabase(t *testing.T) {
    t.Setenv("APP_ENV", "test")
    t.Setenv("APP_PORT", "8080")
    t.Setenv("JWT_SECRET", "s")
    t.Setenv("STORE_DRIVER", "MEMORY")
    t.Setenv("HOLD_DURATION", "45m")

    cfg := Load()
    assert.Equal(t, DriverMemory, cfg.StoreDriver)
    assert.Equal(t, 45*time.Minute, cfg.HoldDuration)
    assert.Equal(t, 15, cfg.AccessTTLMin)
    assert.Empty(t, cfg.DBHost)
}

func TestLoad_Defaults(t *testing.T) {
    t.Setenv("APP_ENV", "test")
    t.Setenv("APP_PORT", "8080")
    t.Setenv("JWT_SECRET", "s")
    t.Setenv("DB_USER", "root")
    t.Setenv("DB_HOST", "127.0.0.1")
    t.Setenv("DB_PORT", "3306")
    t.Setenv("DB_NAME", "rifas")
    t.Setenv("HOLD_DURATION", "nonsense")

    cfg := Load()
    assert.Equal(t, DriverMySQL, cfg.StoreDriver)
    assert.Equal(t, 30*time.Minute, cfg.HoldDuration)
    assert.Equal(t, "COP", cfg.Payment.Currency)
    assert.Equal(t, 10*time.Second, cfg.Payment.LinkTimeout)
}

func TestLoadNotifyConfig(t *testing.T) {
    t.Setenv("NOTIFY_MODE", "bogus")
    t.Setenv("EMAIL_USER", "bot@example.com")
    cfg := LoadNotifyConfig()
    assert.Equal(t, NotifyQueue, cfg.Mode)
    assert.Equal(t, "bot@example.com", cfg.EmailFrom)
    assert.Equal(t, "raffle.notifications", cfg.Queue)
}

func TestAMQPURL(t *testing.T) {
    t.Setenv("RABBITMQ_URL", "")
    t.Setenv("AMQP_URL", "amqp://x")
    assert.Equal(t, "amqp://x", AMQPURL())
    t.Setenv("RABBITMQ_URL", "amqp://y")
    assert.Equal(t, "amqp://y", AMQPURL())
}

func TestLoadRateLimitConfig(t *testing.T) {
    t.Setenv("RATE_LIMIT_BURST", "5")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
    cfg := LoadRateLimitConfig()
    assert.Equal(t, 5, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    assert.Equal(t, 2*time.Second, cfg.RefillInterval)
    assert.GreaterOrEqual(t, cfg.TTL, 10*time.Second)
}
