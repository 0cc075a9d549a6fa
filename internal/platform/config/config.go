package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files (e.g. ".env"); with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvDuration parses the variable with time.ParseDuration ("5s", "250ms").
// Unset, empty, invalid or non-positive values yield fallback.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// MissingError reports required environment variables that were not set.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required environment variables: %v", e.Keys)
}

// Required collects required variables so that every missing key is reported
// at once instead of failing on the first one.
type Required struct {
	missing []string
}

// Get returns the value of key and remembers it as missing when empty.
func (r *Required) Get(key string) string {
	s := os.Getenv(key)
	if s == "" {
		r.missing = append(r.missing, key)
	}
	return s
}

// Err returns a *MissingError if any Get call found an empty variable.
func (r *Required) Err() error {
	if len(r.missing) == 0 {
		return nil
	}
	return &MissingError{Keys: r.missing}
}
