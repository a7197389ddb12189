package config

import "time"

// CacheConfig controls the Redis read-through cache of zone listings.
// When Enabled is false or no Redis client is configured, listings are
// always read from MySQL.  Entries are dropped as soon as a reservation
// moves stock, and a listing read across such a drop is not written back,
// so TTL only bounds how long an orphaned key survives.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads CACHE_* variables.  Defaults are used when
// variables are not set.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled: envBool("CACHE_ENABLED", true),
		TTL:     envDur("CACHE_TTL", 5*time.Minute),
		Prefix:  envStr("CACHE_PREFIX", "festival"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	return cfg
}
