// Package config loads the service configuration from YAML with
// environment overrides for secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Metrics  MetricsConfig `yaml:"metrics"`
	LLM      LLMConfig     `yaml:"llm"`
	Storage  StorageConfig `yaml:"storage"`
	Kitchen  KitchenConfig `yaml:"kitchen"`
	LogLevel string        `yaml:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`
}

type ServerConfig struct {
	Port          int      `yaml:"port"`
	SessionSecret string   `yaml:"session_secret"`
	SessionTTL    Duration `yaml:"session_ttl"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LLMConfig selects the hosted completion service.
type LLMConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIVersion string `yaml:"api_version"`
	APIKey     string `yaml:"api_key"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type KitchenConfig struct {
	RecipeCount    int `yaml:"recipe_count"`
	FridgeCapacity int `yaml:"fridge_capacity"`
}

// Duration is a time.Duration written as "30m" or "24h" in YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Provider names accepted in llm.provider.
const (
	ProviderOpenAI       = "openai"
	ProviderGitHubModels = "github_models"
	ProviderAzure        = "azure"
)

// Storage drivers accepted in storage.driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       8080,
			SessionTTL: Duration{24 * time.Hour},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Model:    "gpt-4",
		},
		Storage: StorageConfig{
			Driver: DriverMemory,
		},
		Kitchen: KitchenConfig{
			RecipeCount:    5,
			FridgeCapacity: 50,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads path on top of the defaults, applies environment overrides
// and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	switch c.LLM.Provider {
	case ProviderGitHubModels:
		set(&c.LLM.APIKey, "GITHUB_TOKEN")
	case ProviderAzure:
		set(&c.LLM.APIKey, "AZURE_OPENAI_API_KEY")
		set(&c.LLM.BaseURL, "AZURE_OPENAI_ENDPOINT")
	default:
		set(&c.LLM.APIKey, "OPENAI_API_KEY")
	}
	set(&c.Server.SessionSecret, "DINNER_SESSION_SECRET")
	set(&c.Storage.DSN, "DINNER_DATABASE_URL")
	set(&c.LogLevel, "DINNER_LOG_LEVEL")
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive"))
	}
	if c.Server.SessionSecret == "" {
		errs = append(errs, fmt.Errorf("server.session_secret is required (or DINNER_SESSION_SECRET)"))
	}
	if c.Server.SessionTTL.Duration <= 0 {
		errs = append(errs, fmt.Errorf("server.session_ttl must be positive"))
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		errs = append(errs, fmt.Errorf("metrics.port must be positive"))
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGitHubModels:
	case ProviderAzure:
		if c.LLM.BaseURL == "" {
			errs = append(errs, fmt.Errorf("llm.base_url is required for azure (or AZURE_OPENAI_ENDPOINT)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider))
	}
	if c.LLM.Model == "" {
		errs = append(errs, fmt.Errorf("llm.model is required"))
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, fmt.Errorf("llm.api_key is required for provider %s", c.LLM.Provider))
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for driver %s", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver))
	}

	if c.Kitchen.RecipeCount <= 0 {
		errs = append(errs, fmt.Errorf("kitchen.recipe_count must be positive"))
	}
	if c.Kitchen.FridgeCapacity <= 0 {
		errs = append(errs, fmt.Errorf("kitchen.fridge_capacity must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
