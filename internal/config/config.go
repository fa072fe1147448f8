// Package config loads environment configuration for the skills.
// Values come from the process environment, optionally seeded from a
// .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotenv seeds the process environment from a .env file.
//
// mode is "auto" (use ./.env when present, silently skip otherwise),
// "off" (never load), or an explicit file path (must exist). When
// override is true, values from the file replace variables already set
// in the environment.
func LoadDotenv(mode string, override bool) error {
	var path string
	switch mode {
	case "off":
		return nil
	case "", "auto":
		path = ".env"
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	default:
		path = mode
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("dotenv file not found: %s", path)
		}
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for k, v := range values {
		if !override {
			if _, exists := os.LookupEnv(k); exists {
				continue
			}
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("setting %s: %w", k, err)
		}
	}
	return nil
}

// Getenv returns the value of key, or fallback when unset or empty.
func Getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Require returns the value of key or an error naming the missing variable.
func Require(key string) (string, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", fmt.Errorf("missing required environment variable %s", key)
	}
	return v, nil
}

// GetenvInt returns key parsed as an int, or fallback when unset or invalid.
func GetenvInt(key string, fallback int) int {
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

// GetenvBool reads key as a boolean. Recognizes 1/true/yes/on (any case).
func GetenvBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

// DataDir resolves the output directory for artifacts. Priority:
// explicit flag value > GROWTHKIT_DATA_DIR > ./data.
func DataDir(flagValue string) (string, error) {
	dir := flagValue
	if dir == "" {
		dir = os.Getenv("GROWTHKIT_DATA_DIR")
	}
	if dir == "" {
		dir = "data"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving data dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	return abs, nil
}
