package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackendURLFromEnv(t *testing.T) {
	t.Run("prefers SUPABASE_URL", func(t *testing.T) {
		t.Setenv("SUPABASE_URL", "https://main.example.co/")
		t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://next.example.co")
		assert.Equal(t, "https://main.example.co", BackendURLFromEnv())
	})

	t.Run("falls back to bundler prefixes", func(t *testing.T) {
		t.Setenv("SUPABASE_URL", "")
		t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "")
		t.Setenv("VITE_SUPABASE_URL", "https://vite.example.co")
		assert.Equal(t, "https://vite.example.co", BackendURLFromEnv())
	})

	t.Run("empty when unset", func(t *testing.T) {
		t.Setenv("SUPABASE_URL", "")
		t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "")
		t.Setenv("VITE_SUPABASE_URL", "")
		assert.Equal(t, "", BackendURLFromEnv())
	})
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "yes")
	t.Setenv("X_INT", "12")
	t.Setenv("X_BAD_INT", "abc")

	assert.True(t, getEnvBool("X_BOOL", false))
	assert.True(t, getEnvBool("X_MISSING_BOOL", true))
	assert.Equal(t, 12, getEnvInt("X_INT", 3))
	assert.Equal(t, 3, getEnvInt("X_BAD_INT", 3))
	assert.Equal(t, "fallback", getEnv("X_MISSING", "fallback"))
}

func TestConfigBackendFlags(t *testing.T) {
	cfg := &Config{BackendURL: "https://x.co", BackendAnonKey: "anon"}
	assert.True(t, cfg.HasBackend())
	assert.False(t, cfg.HasAdminBackend())

	cfg.BackendServiceRoleKey = "service"
	assert.True(t, cfg.HasAdminBackend())
}

func TestGenerateSecureSecret(t *testing.T) {
	a := GenerateSecureSecret()
	b := GenerateSecureSecret()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
