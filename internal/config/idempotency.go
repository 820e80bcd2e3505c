package config

import "time"

// IdempotencyConfig configures replay of POST /entries responses keyed
// by the Idempotency-Key header.  LockTTL bounds how long an in-flight
// request holds its key.
type IdempotencyConfig struct {
	Enabled      bool
	TTL          time.Duration
	LockTTL      time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadIdempotencyConfig reads IDEMPOTENCY_* variables.
func LoadIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		Enabled:      envBool("IDEMPOTENCY_ENABLED", true),
		TTL:          envDur("IDEMPOTENCY_TTL", 24*time.Hour),
		LockTTL:      envDur("IDEMPOTENCY_LOCK_TTL", 30*time.Second),
		Prefix:       envStr("IDEMPOTENCY_PREFIX", "racecraft:idem"),
		MaxBodyBytes: envInt("IDEMPOTENCY_MAX_BODY_BYTES", 64<<10),
	}
}
