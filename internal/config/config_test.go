package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASS", "")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "stay")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("DB_MIGRATE", "off")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.False(t, cfg.DBMigrate)
}

func TestLoadBookingConfig(t *testing.T) {
	cfg := LoadBookingConfig()
	assert.Equal(t, time.Hour, cfg.PaymentWindow)
	assert.Equal(t, "redis", cfg.LockBackend)

	t.Setenv("BOOKING_PAYMENT_WINDOW", "30m")
	t.Setenv("BOOKING_SWEEP_INTERVAL", "-1s")
	t.Setenv("BOOKING_LOCK_BACKEND", "local")
	cfg = LoadBookingConfig()
	assert.Equal(t, 30*time.Minute, cfg.PaymentWindow)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, "local", cfg.LockBackend)
}

func TestLoadEventsConfig(t *testing.T) {
	t.Setenv("EVENT_BROKER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("EVENT_WORKERS", "0")
	cfg := LoadEventsConfig()
	assert.Equal(t, "kafka", cfg.Broker)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 1, cfg.Workers)

	t.Setenv("EVENT_BROKER", "carrier-pigeon")
	assert.Equal(t, "none", LoadEventsConfig().Broker)
}

func TestLoadStorageConfig(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "s3")
	assert.Equal(t, "local", LoadStorageConfig().Backend, "s3 without a bucket falls back")

	t.Setenv("S3_BUCKET", "proofs")
	cfg := LoadStorageConfig()
	assert.Equal(t, "s3", cfg.Backend)
	assert.Equal(t, "proofs", cfg.Bucket)
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	assert.Equal(t, "cache:6380", LoadRedisConfig().Addr)
	t.Setenv("REDIS_HOST", "r")
	t.Setenv("REDIS_PORT", "6379")
	assert.Equal(t, "r:6379", LoadRedisConfig().Addr)
}

func TestParseMethods(t *testing.T) {
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, parseMethods(" get,HEAD,, "))
}
