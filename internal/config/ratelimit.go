package config

import "time"

// RateLimitConfig defines settings for the auth rate-limit middleware
// guarding login and security-check endpoints against brute force.
// When Enabled is false or no Redis client is available the middleware
// becomes a no-op.
type RateLimitConfig struct {
	Enabled bool
	Limit   int           // attempts allowed per window
	Window  time.Duration // window length
	Prefix  string        // key namespace in Redis
}

// LoadRateLimitConfig reads environment variables to build a
// RateLimitConfig. Defaults are used when variables are not set.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled: getenv("AUTH_RATE_LIMIT_ENABLED", "true") == "true",
		Limit:   atoi(getenv("AUTH_RATE_LIMIT", "5")),
		Window:  parseDur(getenv("AUTH_RATE_WINDOW", "1m")),
		Prefix:  getenv("AUTH_RATE_PREFIX", "ratelimit"),
	}
}
