package config

import "time"

// BookingConfig tunes the booking engine and its background sweeper.
type BookingConfig struct {
	PaymentWindow time.Duration // time a guest has to upload a payment proof
	SweepInterval time.Duration // how often stale and finished bookings are swept
	LockBackend   string        // "redis" or "local" per-room locking
	LockTTL       time.Duration // lease of a redis room lock
	LockPrefix    string        // redis key prefix for room locks
	RoomCacheTTL  time.Duration // in-process cache of rooms and peak seasons; 0 disables
}

// LoadBookingConfig reads BOOKING_* variables with sensible defaults.
func LoadBookingConfig() BookingConfig {
	cfg := BookingConfig{
		PaymentWindow: envDur("BOOKING_PAYMENT_WINDOW", time.Hour),
		SweepInterval: envDur("BOOKING_SWEEP_INTERVAL", time.Minute),
		LockBackend:   envStr("BOOKING_LOCK_BACKEND", "redis"),
		LockTTL:       envDur("BOOKING_LOCK_TTL", 10*time.Second),
		LockPrefix:    envStr("BOOKING_LOCK_PREFIX", "lock"),
		RoomCacheTTL:  envDur("ROOM_CACHE_TTL", 30*time.Second),
	}
	if cfg.PaymentWindow <= 0 {
		cfg.PaymentWindow = time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.LockBackend != "local" {
		cfg.LockBackend = "redis"
	}
	return cfg
}
