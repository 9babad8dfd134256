package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,https://app.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 8*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 720*time.Hour, cfg.RememberTokenTTL)
	assert.Equal(t, time.Duration(0), cfg.ActivityRetention)
	assert.Equal(t, 5*time.Second, cfg.AuditWriteTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "https://app.example.com"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsWeakSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("TOKEN_TTL", "48h")
	t.Setenv("REMEMBER_TOKEN_TTL", "24h")
	_, err = LoadConfig()
	require.Error(t, err)

	t.Setenv("REMEMBER_TOKEN_TTL", "720h")
	t.Setenv("BCRYPT_COST", "2")
	_, err = LoadConfig()
	require.Error(t, err)

	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("AUDIT_WRITE_TIMEOUT", "0s")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "nope": "INFO"}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
