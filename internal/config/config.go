package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Generator tuning lives here because the
// reflection service treats temperature, output cap, retry count and
// backoff base as deployment configuration, not code constants.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	SessionTTL time.Duration // lifetime of a stored session context

	GenAPIURL          string        // content-generation service base URL
	GenModel           string        // model identifier
	GenAPIKey          string        // API credential (never hard-coded)
	GenTemperature     float64       // creativity parameter
	GenMaxOutputTokens int           // output length cap
	GenMaxRetries      int           // additional attempts on transport failure
	GenBackoffBase     time.Duration // backoff time unit between retries
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
// Generator tuning falls back to documented defaults.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		SessionTTL: parseDur(getenv("SESSION_TTL", "24h")),

		GenAPIURL:          getenv("GEN_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GenModel:           getenv("GEN_MODEL", "gemini-1.5-flash"),
		GenAPIKey:          must("GEN_API_KEY"),
		GenTemperature:     parseFloat(getenv("GEN_TEMPERATURE", "0.8")),
		GenMaxOutputTokens: atoi(getenv("GEN_MAX_OUTPUT_TOKENS", "200")),
		GenMaxRetries:      atoi(getenv("GEN_MAX_RETRIES", "3")),
		GenBackoffBase:     parseDur(getenv("GEN_BACKOFF_BASE", "1s")),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration: %q", s)
	}
	return d
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Fatalf("invalid float: %q", s)
	}
	return f
}
