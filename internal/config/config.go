package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTP + websocket listener
	Port string

	// Postgres DSN for the storage layer
	DatabaseURL string

	// Redis backplane: URL form takes precedence over discrete fields
	RedisURL      string
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	// Identity provider (GoTrue-compatible HTTP API)
	IdentityURL        string
	IdentityServiceKey string

	// CORS
	AllowedOrigins []string
}

// Load reads configuration from environment variables, applying defaults
// where a value is absent.
func Load() Config {
	cfg := Config{
		Port:               getenv("PORT", "3001"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DB_URL")),
		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		RedisHost:          getenv("REDIS_HOST", "localhost"),
		RedisPort:          getint("REDIS_PORT", 6379),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getint("REDIS_DB", 0),
		RedisTLS:           os.Getenv("REDIS_TLS") == "true",
		IdentityURL:        strings.TrimSpace(os.Getenv("IDENTITY_URL")),
		IdentityServiceKey: strings.TrimSpace(os.Getenv("IDENTITY_SERVICE_KEY")),
	}

	origins := getenv("ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
