// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or malformed, the process exits.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Résumé storage backends.
const (
	StorageSupabase = "supabase"
	StoragePostgres = "postgres"
)

// Config holds all runtime configuration for the ATS server and CLI.
type Config struct {
	Port        string
	GRPCPort    string
	DatabaseURL string
	RedisURL    string

	// PublicBaseURL prefixes résumé URLs served by the postgres backend.
	PublicBaseURL string

	ResumeStorage      string
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	SessionTTL     time.Duration
	ReminderCron   string
	ReminderWindow time.Duration
	AdminEmails    []string
}

// SupabaseConfigured reports whether the supabase backend has credentials.
func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

// Load reads a .env file when present, then environment variables, and
// returns a validated Config. Variables already set in the environment
// win over the .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	storage := strings.ToLower(getenv("RESUME_STORAGE", StorageSupabase))
	if storage != StorageSupabase && storage != StoragePostgres {
		return nil, fmt.Errorf("RESUME_STORAGE must be %q or %q, got %q", StorageSupabase, StoragePostgres, storage)
	}

	ttlHours, err := positiveInt("SESSION_TTL_HOURS", 72)
	if err != nil {
		return nil, err
	}
	windowMinutes, err := positiveInt("REMINDER_WINDOW_MINUTES", 60)
	if err != nil {
		return nil, err
	}

	port := getenv("ATS_PORT", "8080")

	return &Config{
		Port:               port,
		GRPCPort:           getenv("ATS_GRPC_PORT", "9090"),
		DatabaseURL:        dbURL,
		RedisURL:           redisURL,
		PublicBaseURL:      strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		ResumeStorage:      storage,
		SupabaseURL:        strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseBucket:     getenv("SUPABASE_BUCKET", "resumes"),
		SessionTTL:         time.Duration(ttlHours) * time.Hour,
		ReminderCron:       getenv("REMINDER_CRON", "@every 15m"),
		ReminderWindow:     time.Duration(windowMinutes) * time.Minute,
		AdminEmails:        splitList(os.Getenv("ADMIN_EMAILS")),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
