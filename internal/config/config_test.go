package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/laci.sqlite")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, float64(100), cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, []string{"LACI Administrators"}, cfg.AdminGroups)
	assert.Equal(t, "onmicrosoft.com", cfg.Directory.InternalSuffix)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_PATH", "/data/laci.sqlite")
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_GROUPS", "Platform Admins, Ops ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://laci.example.com")
	t.Setenv("RATE_LIMIT_RPS", "10.5")
	t.Setenv("RATE_LIMIT_BURST", "20")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, []string{"Platform Admins", "Ops"}, cfg.AdminGroups)
	assert.Equal(t, []string{"https://laci.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 10.5, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing db path", Config{}, true},
		{"dev without jwt secret", Config{DBPath: "x", Env: "development"}, false},
		{"production without jwt secret", Config{DBPath: "x", Env: "production"}, true},
		{"directory without token", Config{
			DBPath:    "x",
			Directory: DirectoryConfig{BaseURL: "https://graph.example.com"},
		}, true},
		{"directory with token", Config{
			DBPath:    "x",
			Directory: DirectoryConfig{BaseURL: "https://graph.example.com", Token: "t"},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nDB_PATH=/from/file\nLISTEN_ADDR=\":7000\"\n\nBROKEN LINE\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// Pre-set vars win over the file.
	t.Setenv("DB_PATH", "/from/env")
	t.Setenv("LISTEN_ADDR", "")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "/from/env", os.Getenv("DB_PATH"))
	assert.Equal(t, ":7000", os.Getenv("LISTEN_ADDR"))
}

func TestLoadDotEnvMissingFileIsFine(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
