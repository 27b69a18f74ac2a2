// Package config loads configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Env holds the configuration values for the application.
type Env struct {
	Port           string
	DBPath         string
	APIURL         string
	APITimeout     time.Duration
	Secret         string
	LogLevel       string
	SessionTTL     time.Duration
	AllowedOrigins []string
}

// Load reads the environment, after merging any of the given dotenv files
// that exist. With no files it tries ./.env. Variables already set in the
// process win over file values.
func Load(files ...string) (Env, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Env{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	apiTimeout, err := duration("COINHUB_API_TIMEOUT", "10s")
	if err != nil {
		return Env{}, err
	}
	sessionTTL, err := duration("COINHUB_SESSION_TTL", "720h")
	if err != nil {
		return Env{}, err
	}
	secret, err := must("COINHUB_SECRET")
	if err != nil {
		return Env{}, err
	}

	return Env{
		Port:           get("COINHUB_PORT", "8080"),
		DBPath:         get("COINHUB_DB_PATH", "coinhub.db"),
		APIURL:         strings.TrimRight(get("COINHUB_API_URL", "https://edc-test.ilmhub.uz"), "/"),
		APITimeout:     apiTimeout,
		Secret:         secret,
		LogLevel:       get("COINHUB_LOG_LEVEL", "info"),
		SessionTTL:     sessionTTL,
		AllowedOrigins: list(get("COINHUB_ALLOWED_ORIGINS", "")),
	}, nil
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// must returns the value of the environment variable k or an error if not set.
func must(k string) (string, error) {
	v := os.Getenv(k)
	if v == "" {
		return "", fmt.Errorf("missing env %s", k)
	}
	return v, nil
}

func duration(k, def string) (time.Duration, error) {
	d, err := time.ParseDuration(get(k, def))
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("env %s: must be positive", k)
	}
	return d, nil
}

func list(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
