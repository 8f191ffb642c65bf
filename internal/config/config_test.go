package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

const testCSRFHex = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

// TestLoad_DevelopmentDefaults verifies an empty environment boots in development.
func TestLoad_DevelopmentDefaults(t *testing.T) {
	cfg, err := Load(envMap(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IsProduction() {
		t.Error("empty env must not be production")
	}
	if cfg.Addr != DefaultAddr || cfg.BackendURL != DefaultBackendURL || cfg.DBPath != DefaultDBPath {
		t.Errorf("defaults = %+v", cfg)
	}
	if len(cfg.JWTSecret) != 32 || len(cfg.CSRFKey) != 32 {
		t.Errorf("generated secrets: jwt=%d csrf=%d, want 32 each", len(cfg.JWTSecret), len(cfg.CSRFKey))
	}
	if cfg.AdminPasswordHash != nil {
		t.Error("no password configured must leave login disabled")
	}
	if cfg.PendingTTL != DefaultPendingTTL || cfg.ContentMaxAge != DefaultContentMaxAge {
		t.Errorf("durations = %v %v", cfg.PendingTTL, cfg.ContentMaxAge)
	}
	if strings.Join(cfg.TrustedOrigins, ",") != "localhost:8080,127.0.0.1:8080" {
		t.Errorf("TrustedOrigins = %v", cfg.TrustedOrigins)
	}
}

// TestLoad_ProductionRequiresSecrets verifies each production secret is enforced.
func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	full := map[string]string{
		"DQ_ENV":                 EnvProduction,
		"DQ_BACKEND_URL":         "https://api.example.org/api/v1",
		"DQ_JWT_SECRET":          strings.Repeat("k", 32),
		"DQ_CSRF_KEY":            testCSRFHex,
		"DQ_ADMIN_PASSWORD_HASH": string(hash),
	}
	if _, err := Load(envMap(full)); err != nil {
		t.Fatalf("complete production env: %v", err)
	}

	tests := []struct {
		drop string
		want error
	}{
		{"DQ_BACKEND_URL", ErrMissingBackendURL},
		{"DQ_JWT_SECRET", ErrMissingJWTSecret},
		{"DQ_CSRF_KEY", ErrMissingCSRFKey},
		{"DQ_ADMIN_PASSWORD_HASH", ErrMissingAdminSecret},
	}
	for _, tt := range tests {
		t.Run(tt.drop, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range full {
				if k != tt.drop {
					env[k] = v
				}
			}
			if _, err := Load(envMap(env)); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestLoad_RejectsBadValues verifies malformed settings fail fast.
func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"csrf not hex", map[string]string{"DQ_CSRF_KEY": "zz"}},
		{"jwt too short", map[string]string{"DQ_JWT_SECRET": "short"}},
		{"relative backend", map[string]string{"DQ_BACKEND_URL": "/api"}},
		{"bad rate", map[string]string{"DQ_RATE_LIMIT": "-1"}},
		{"bad duration", map[string]string{"DQ_PENDING_TTL": "soon"}},
		{"bad hash", map[string]string{"DQ_ADMIN_PASSWORD_HASH": "plain"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(envMap(tt.env)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// TestLoad_DevPasswordIsHashed verifies a plaintext dev password becomes a bcrypt hash.
func TestLoad_DevPasswordIsHashed(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{"DQ_ADMIN_PASSWORD": "letmein", "DQ_OUTBOX_INTERVAL": "5s"}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword(cfg.AdminPasswordHash, []byte("letmein")); err != nil {
		t.Errorf("hash does not match password: %v", err)
	}
	if cfg.OutboxInterval != 5*time.Second {
		t.Errorf("OutboxInterval = %v, want 5s", cfg.OutboxInterval)
	}
}

// TestLoad_HexJWTSecret verifies hex secrets are decoded.
func TestLoad_HexJWTSecret(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{"DQ_JWT_SECRET": testCSRFHex}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.JWTSecret) != 32 {
		t.Errorf("len = %d, want 32 decoded bytes", len(cfg.JWTSecret))
	}
}

// TestLoadDotEnv verifies .env values fill unset variables only.
func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("DQ_TEST_DOTENV_A=from-file\nDQ_TEST_DOTENV_B=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DQ_TEST_DOTENV_B", "from-env")
	t.Cleanup(func() { os.Unsetenv("DQ_TEST_DOTENV_A") })

	LoadDotEnv(path, filepath.Join(dir, "missing.env"))

	if got := os.Getenv("DQ_TEST_DOTENV_A"); got != "from-file" {
		t.Errorf("A = %q, want from-file", got)
	}
	if got := os.Getenv("DQ_TEST_DOTENV_B"); got != "from-env" {
		t.Errorf("B = %q, want from-env (not overwritten)", got)
	}
}

// TestHashPassword verifies empty passwords are refused.
func TestHashPassword(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("empty password must fail")
	}
	h, err := HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}
	if bcrypt.CompareHashAndPassword(h, []byte("pw")) != nil {
		t.Error("hash mismatch")
	}
}
