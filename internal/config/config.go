package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv overrides places.api_key when set
const APIKeyEnv = "PLACES_API_KEY"

type Config struct {
	Environment  string             `yaml:"environment"`
	Places       PlacesConfig       `yaml:"places"`
	Autocomplete AutocompleteConfig `yaml:"autocomplete"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

type PlacesConfig struct {
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url" validate:"required,url"`
	Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
	RateLimit     int           `yaml:"rate_limit" validate:"gt=0"`
	Retry         RetryConfig   `yaml:"retry"`
	SessionTokens bool          `yaml:"session_tokens"`
}

type RetryConfig struct {
	MaxAttempts     uint          `yaml:"max_attempts" validate:"gte=1"`
	InitialInterval time.Duration `yaml:"initial_interval" validate:"gte=0"`
	MaxInterval     time.Duration `yaml:"max_interval" validate:"gtefield=InitialInterval"`
}

type AutocompleteConfig struct {
	Debounce       time.Duration          `yaml:"debounce" validate:"gte=0"`
	Cache          CacheConfig            `yaml:"cache"`
	CacheKey       string                 `yaml:"cache_key"`
	RequestOptions map[string]interface{} `yaml:"request_options"`
	DefaultValue   string                 `yaml:"default_value"`
	InitOnMount    bool                   `yaml:"init_on_mount"`
	CallbackName   string                 `yaml:"callback_name"`
}

// CacheConfig selects the result cache policy. A zero TTL means the default
// lifetime; Forever disables expiry.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTL     int  `yaml:"ttl" validate:"gte=0"`
	Forever bool `yaml:"forever"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn error"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address" validate:"required_if=Enabled true"`
}

// Default returns the configuration used when no file is found
func Default() *Config {
	return &Config{
		Environment: "development",
		Places: PlacesConfig{
			BaseURL:   "https://maps.googleapis.com/maps/api",
			Timeout:   10 * time.Second,
			RateLimit: 10,
			Retry: RetryConfig{
				MaxAttempts:     3,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     2 * time.Second,
			},
			SessionTokens: true,
		},
		Autocomplete: AutocompleteConfig{
			Debounce:    200 * time.Millisecond,
			Cache:       CacheConfig{Enabled: true, TTL: 24 * 60 * 60},
			InitOnMount: true,
		},
		Logging: LoggingConfig{Level: "info"},
		Metrics: MetricsConfig{Address: ":9464"},
	}
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up until a config directory shows up
	for {
		if _, err := os.Stat(filepath.Join(dir, "config")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (no config directory found): %w", os.ErrNotExist)
		}
		dir = parent
	}
}

// LoadConfig reads config/<env>.yaml (or .yml) from the project root
func LoadConfig(env string) (*Config, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("error finding project root: %w", err)
	}

	configPath := filepath.Join(projectRoot, "config", fmt.Sprintf("%s.yaml", env))
	if _, err := os.Stat(configPath); err != nil {
		configPath = filepath.Join(projectRoot, "config", fmt.Sprintf("%s.yml", env))
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Environment = env
	return cfg, nil
}

// LoadFile reads one YAML file on top of Default, applies the environment
// override and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.Places.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
