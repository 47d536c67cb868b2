package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvProduction is the NODE_ENV value that hides internal error detail from clients.
const EnvProduction = "production"

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port              string
	DatabaseURL       string
	JWTSecret         string
	JWTIssuer         string
	JWTTTL            time.Duration
	Env               string
	LogLevel          string
	CORSOrigins       []string
	BillSweepInterval time.Duration
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "finance-tracker"),
		Env:         strings.ToLower(fallback(os.Getenv("NODE_ENV"), "development")),
		LogLevel:    fallback(os.Getenv("LOG_LEVEL"), "info"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
	}

	cfg.JWTTTL = minutes(os.Getenv("JWT_TTL_MINUTES"), 60, false)
	cfg.BillSweepInterval = minutes(os.Getenv("BILL_SWEEP_INTERVAL_MINUTES"), 60, true)

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsProduction reports whether the process runs with NODE_ENV=production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

// minutes parses a whole number of minutes, using def when the value is
// missing or invalid. Zero is accepted only when allowZero is set.
func minutes(raw string, def int, allowZero bool) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 || (n == 0 && !allowZero) {
		n = def
	}
	return time.Duration(n) * time.Minute
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
