package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  session_secret: s3cret
  session_ttl: 30m
llm:
  provider: github_models
  model: gpt-4o-mini
  api_key: file-key
storage:
  driver: sqlite3
  dsn: dinner.db
kitchen:
  recipe_count: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL.Duration)
	assert.Equal(t, ProviderGitHubModels, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Kitchen.RecipeCount)
	// Untouched sections keep their defaults
	assert.Equal(t, 50, cfg.Kitchen.FridgeCapacity)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: openai
`)
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("DINNER_SESSION_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "env-secret", cfg.Server.SessionSecret)
	assert.Equal(t, "gpt-4", cfg.LLM.Model)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("DINNER_SESSION_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.LLM.APIKey = "key"
		cfg.Server.SessionSecret = "secret"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "carrier-pigeon" }},
		{"missing api key", func(c *Config) { c.LLM.APIKey = "" }},
		{"azure without endpoint", func(c *Config) { c.LLM.Provider = ProviderAzure }},
		{"sqlite without dsn", func(c *Config) { c.Storage.Driver = DriverSQLite }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"zero recipe count", func(c *Config) { c.Kitchen.RecipeCount = 0 }},
		{"missing secret", func(c *Config) { c.Server.SessionSecret = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  session_ttl: forever
`)
	_, err := Load(path)
	assert.Error(t, err)
}
