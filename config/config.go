// Package config loads service configuration from defaults, an optional
// YAML file and PAPERSCOUT_* environment variables, in increasing order of
// precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ModelConfig selects and configures the chat backend.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Name        string  `mapstructure:"name"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTurns    int     `mapstructure:"max_turns"`
}

// SearchConfig configures the arXiv lookup adapter.
type SearchConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	MaxResults      int           `mapstructure:"max_results"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Model  ModelConfig  `mapstructure:"model"`
	Search SearchConfig `mapstructure:"search"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Log    LogConfig    `mapstructure:"log"`
}

// Load reads configuration. path names an optional YAML file; an empty
// path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.request_timeout", 120*time.Second)
	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.name", "gpt-4o-mini")
	v.SetDefault("model.temperature", 0.2)
	v.SetDefault("model.max_turns", 10)
	v.SetDefault("search.base_url", "https://export.arxiv.org/api/query")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.request_interval", 3*time.Second)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetEnvPrefix("PAPERSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Model.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported model provider %q", c.Model.Provider)
	}
	if c.Model.MaxTurns < 1 {
		return fmt.Errorf("model.max_turns must be at least 1")
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be at least 1")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	return nil
}
