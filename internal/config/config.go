package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort string

	// Store settings
	StoreType         string // sqlite, postgres, mysql or memory
	DatabasePath      string
	DatabaseURL       string
	FamilyKey         string
	StorePollInterval time.Duration

	// Reconciler
	ResyncInterval time.Duration

	// Identity
	AdminEmails          []string
	SessionSecret        string
	SessionDuration      time.Duration
	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string
	// ParentPasswordHash is a bcrypt hash enabling the local parent login
	// fallback when Google OAuth is not configured
	ParentPasswordHash string

	// Email notifications (disabled when EmailFrom is empty)
	EmailFrom   string
	ParentEmail string

	// Seed
	SeedPath string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:           getEnv("PORT", "8080"),
		StoreType:            getEnv("STORE_TYPE", "sqlite"),
		DatabasePath:         getEnv("DB_PATH", "./homeheroes.db"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		FamilyKey:            getEnv("FAMILY_KEY", "myFamily"),
		StorePollInterval:    getDuration("STORE_POLL_INTERVAL", time.Second),
		ResyncInterval:       getDuration("RESYNC_INTERVAL", time.Minute),
		AdminEmails:          splitList(getEnv("ADMIN_EMAILS", "")),
		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionDuration:      24 * time.Hour,
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),
		ParentPasswordHash:   getEnv("PARENT_PASSWORD_HASH", ""),
		EmailFrom:            getEnv("EMAIL_FROM", ""),
		ParentEmail:          getEnv("PARENT_EMAIL", ""),
		SeedPath:             getEnv("SEED_PATH", ""),
	}
}

// Validate checks that the configuration is complete enough to start.
// A failure here is fatal: no state machine runs without store credentials.
func (c *Config) Validate() error {
	switch strings.ToLower(c.StoreType) {
	case "sqlite", "sqlite3", "memory", "":
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store type %s", c.StoreType)
		}
	default:
		return fmt.Errorf("unsupported store type: %s", c.StoreType)
	}

	if len(c.AdminEmails) == 0 {
		return fmt.Errorf("ADMIN_EMAILS is required: no identity could ever be privileged")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration reads a duration environment variable or returns a default
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// splitList parses a comma-separated list, trimming whitespace
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
