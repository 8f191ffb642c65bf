// Package config loads server settings from DQ_* environment variables, with an
// optional .env file for local development.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// EnvProduction is the DQ_ENV value that makes secrets mandatory.
const EnvProduction = "production"

// Defaults
const (
	DefaultAddr           = ":8080"
	DefaultDBPath         = "dq.db"
	DefaultBackendURL     = "http://localhost:5000/api/v1"
	DefaultAdminUsername  = "admin"
	DefaultEmailFrom      = "Donations <noreply@example.org>"
	DefaultRateLimit      = 10
	DefaultOutboxInterval = time.Minute
	DefaultPendingTTL     = 24 * time.Hour
	DefaultContentMaxAge  = 30 * time.Second
	DefaultStaticDir      = "static"
)

// Config errors
var (
	ErrMissingJWTSecret   = errors.New("DQ_JWT_SECRET is required in production")
	ErrMissingCSRFKey     = errors.New("DQ_CSRF_KEY is required in production")
	ErrMissingAdminSecret = errors.New("DQ_ADMIN_PASSWORD_HASH is required in production")
	ErrMissingBackendURL  = errors.New("DQ_BACKEND_URL is required in production")
	ErrBadCSRFKey         = errors.New("DQ_CSRF_KEY must be 64 hex characters (32 bytes)")
	ErrShortJWTSecret     = errors.New("DQ_JWT_SECRET must be at least 32 bytes")
)

// Config is the resolved server configuration.
type Config struct {
	Env            string
	Addr           string
	DBPath         string
	StaticDir      string
	BackendURL     string
	BackendToken   string
	TrustedOrigins []string

	AdminUsername     string
	AdminPasswordHash []byte
	JWTSecret         []byte
	CSRFKey           []byte

	ResendKey string
	EmailFrom string
	ReplyTo   string

	RateLimitPerSecond int
	SlowQuery          time.Duration
	OutboxInterval     time.Duration
	PendingTTL         time.Duration
	ContentMaxAge      time.Duration
}

// IsProduction reports whether DQ_ENV=production.
func (c Config) IsProduction() bool { return c.Env == EnvProduction }

// LoadDotEnv reads .env files into the process environment. Missing files are
// ignored and existing variables are never overwritten.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("config_warning", "event", "dotenv_unreadable", "path", p, "error", err)
		}
	}
}

// Load resolves the configuration using getenv (os.Getenv in main).
// PRE: getenv is non-nil
// POST: In production every secret is set or an error is returned; in development
// missing secrets are generated and a warning is logged
func Load(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Env:           env("DQ_ENV", "development"),
		Addr:          env("DQ_ADDR", DefaultAddr),
		DBPath:        env("DQ_DB_PATH", DefaultDBPath),
		StaticDir:     env("DQ_STATIC_DIR", DefaultStaticDir),
		BackendToken:  getenv("DQ_BACKEND_TOKEN"),
		AdminUsername: env("DQ_ADMIN_USERNAME", DefaultAdminUsername),
		ResendKey:     getenv("DQ_RESEND_KEY"),
		EmailFrom:     env("DQ_RESEND_FROM", DefaultEmailFrom),
		ReplyTo:       getenv("DQ_REPLY_TO"),
	}
	prod := cfg.IsProduction()

	cfg.BackendURL = env("DQ_BACKEND_URL", "")
	if cfg.BackendURL == "" {
		if prod {
			return Config{}, ErrMissingBackendURL
		}
		cfg.BackendURL = DefaultBackendURL
	}
	if u, err := url.Parse(cfg.BackendURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Config{}, fmt.Errorf("DQ_BACKEND_URL must be an absolute http(s) url, got %q", cfg.BackendURL)
	}

	origins := env("DQ_TRUSTED_ORIGINS", "localhost:8080,127.0.0.1:8080")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.TrustedOrigins = append(cfg.TrustedOrigins, o)
		}
	}

	var err error
	if cfg.RateLimitPerSecond, err = positiveInt(env("DQ_RATE_LIMIT", ""), DefaultRateLimit); err != nil {
		return Config{}, fmt.Errorf("DQ_RATE_LIMIT: %w", err)
	}
	durations := []struct {
		key      string
		dst      *time.Duration
		fallback time.Duration
	}{
		{"DQ_SLOW_QUERY", &cfg.SlowQuery, 50 * time.Millisecond},
		{"DQ_OUTBOX_INTERVAL", &cfg.OutboxInterval, DefaultOutboxInterval},
		{"DQ_PENDING_TTL", &cfg.PendingTTL, DefaultPendingTTL},
		{"DQ_CONTENT_MAX_AGE", &cfg.ContentMaxAge, DefaultContentMaxAge},
	}
	for _, d := range durations {
		if *d.dst, err = positiveDuration(env(d.key, ""), d.fallback); err != nil {
			return Config{}, fmt.Errorf("%s: %w", d.key, err)
		}
	}

	if cfg.JWTSecret, err = loadJWTSecret(getenv("DQ_JWT_SECRET"), prod); err != nil {
		return Config{}, err
	}
	if cfg.CSRFKey, err = loadCSRFKey(getenv("DQ_CSRF_KEY"), prod); err != nil {
		return Config{}, err
	}
	if cfg.AdminPasswordHash, err = loadAdminHash(getenv("DQ_ADMIN_PASSWORD_HASH"), getenv("DQ_ADMIN_PASSWORD"), prod); err != nil {
		return Config{}, err
	}
	if prod && cfg.ResendKey == "" {
		slog.Warn("config_warning", "event", "email_disabled", "reason", "DQ_RESEND_KEY is not set")
	}
	return cfg, nil
}

func loadJWTSecret(raw string, prod bool) ([]byte, error) {
	if raw != "" {
		if key, err := hex.DecodeString(raw); err == nil && len(key) >= 32 {
			return key, nil
		}
		if len(raw) < 32 {
			return nil, ErrShortJWTSecret
		}
		return []byte(raw), nil
	}
	if prod {
		return nil, ErrMissingJWTSecret
	}
	slog.Warn("config_warning", "event", "random_jwt_secret", "reason", "dashboard logins end on restart; set DQ_JWT_SECRET")
	return randomKey()
}

// loadCSRFKey reads the CSRF secret (hex-encoded, 32 bytes). In development a
// random key is generated per startup.
func loadCSRFKey(raw string, prod bool) ([]byte, error) {
	if raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil || len(key) != 32 {
			return nil, ErrBadCSRFKey
		}
		return key, nil
	}
	if prod {
		return nil, ErrMissingCSRFKey
	}
	slog.Warn("config_warning", "event", "random_csrf_key", "reason", "set DQ_CSRF_KEY for production")
	return randomKey()
}

// loadAdminHash prefers a bcrypt hash. A plaintext password is only accepted
// outside production and is hashed at startup.
func loadAdminHash(hash, password string, prod bool) ([]byte, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("DQ_ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
		}
		return []byte(hash), nil
	}
	if prod {
		return nil, ErrMissingAdminSecret
	}
	if password == "" {
		slog.Warn("config_warning", "event", "dashboard_login_disabled", "reason", "set DQ_ADMIN_PASSWORD or DQ_ADMIN_PASSWORD_HASH")
		return nil, nil
	}
	return HashPassword(password)
}

// HashPassword returns a bcrypt hash suitable for DQ_ADMIN_PASSWORD_HASH.
func HashPassword(password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func randomKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

func positiveInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("want a positive integer, got %q", raw)
	}
	return n, nil
}

func positiveDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("want a positive duration like 30s, got %q", raw)
	}
	return d, nil
}
