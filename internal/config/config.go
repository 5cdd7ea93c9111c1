package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the service needs at construction time. It is
// built once in main and handed to constructors; no package reads the
// environment after boot.
type Config struct {
	Port          string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string
	TokenTTL      time.Duration
	AllowOrigins  []string
}

// Load reads a .env file if present and builds the configuration from the
// environment. JWT_SECRET and MONGO_URI are mandatory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("API_PORT", "8080"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getEnv("MONGO_DATABASE", "medtips"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      24 * time.Hour,
		AllowOrigins:  []string{"*"},
	}

	if ttl := os.Getenv("JWT_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, errors.New("JWT_TTL is not a valid duration")
		}
		cfg.TokenTTL = d
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.AllowOrigins = strings.Split(origins, ",")
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
