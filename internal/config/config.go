// Package config loads the application configuration using Viper
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"
)

// Provider kinds
const (
	ProviderHTTP  = "http"
	ProviderLocal = "local"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig
	Provider  ProviderConfig
	Cache     CacheConfig
	Log       LogConfig
	Keys      KeyConfig
	Markets   []string
	Market    string
	Timeframe string
}

// ServerConfig holds the chart server settings
type ServerConfig struct {
	Port        int
	Debug       bool
	FactoryMode bool
}

// ProviderConfig selects and configures the backtest provider
type ProviderConfig struct {
	Kind     string
	BaseURL  string
	Timeout  time.Duration
	Attempts int
	DataDir  string
}

// CacheConfig configures the provider response cache
type CacheConfig struct {
	Enabled bool
	Path    string
	TTL     time.Duration
}

// LogConfig configures logging output
type LogConfig struct {
	Level      string
	TimeLayout string
	Colored    bool
	JSON       bool
}

// KeyConfig holds the keys used for directed marking
type KeyConfig struct {
	Buy  string
	Sell string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.factory_mode", true)

	v.SetDefault("provider.kind", ProviderHTTP)
	v.SetDefault("provider.base_url", "http://localhost:8000")
	v.SetDefault("provider.timeout", "30s")
	v.SetDefault("provider.attempts", 3)
	v.SetDefault("provider.data_dir", "./data")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", ":memory:")
	v.SetDefault("cache.ttl", "5m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.time_layout", "2006-01-02 15:04:05")
	v.SetDefault("log.colored", true)
	v.SetDefault("log.json", false)

	v.SetDefault("keys.buy", "b")
	v.SetDefault("keys.sell", "s")

	v.SetDefault("markets", []string{"BTC", "ETH", "SOL", "AVAX", "DOGE", "ARB"})
	v.SetDefault("market", "BTC")
	v.SetDefault("timeframe", "1h")
}

// Load reads configuration from the environment (prefix MARKFACTORY_) and,
// when path is not empty, from a config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MARKFACTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	timeout, err := str2duration.ParseDuration(v.GetString("provider.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid provider.timeout: %w", err)
	}

	ttl, err := str2duration.ParseDuration(v.GetString("cache.ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid cache.ttl: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetInt("server.port"),
			Debug:       v.GetBool("server.debug"),
			FactoryMode: v.GetBool("server.factory_mode"),
		},
		Provider: ProviderConfig{
			Kind:     strings.ToLower(v.GetString("provider.kind")),
			BaseURL:  strings.TrimRight(v.GetString("provider.base_url"), "/"),
			Timeout:  timeout,
			Attempts: v.GetInt("provider.attempts"),
			DataDir:  v.GetString("provider.data_dir"),
		},
		Cache: CacheConfig{
			Enabled: v.GetBool("cache.enabled"),
			Path:    v.GetString("cache.path"),
			TTL:     ttl,
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			TimeLayout: v.GetString("log.time_layout"),
			Colored:    v.GetBool("log.colored"),
			JSON:       v.GetBool("log.json"),
		},
		Keys: KeyConfig{
			Buy:  v.GetString("keys.buy"),
			Sell: v.GetString("keys.sell"),
		},
		Markets:   v.GetStringSlice("markets"),
		Market:    v.GetString("market"),
		Timeframe: v.GetString("timeframe"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that would otherwise fail late
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderHTTP, ProviderLocal:
	default:
		return fmt.Errorf("unknown provider kind %q", c.Provider.Kind)
	}

	if c.Provider.Attempts < 1 {
		return fmt.Errorf("provider.attempts must be at least 1, got %d", c.Provider.Attempts)
	}

	if _, err := str2duration.ParseDuration(c.Timeframe); err != nil {
		return fmt.Errorf("invalid timeframe %q: %w", c.Timeframe, err)
	}

	if strings.TrimSpace(c.Keys.Buy) == "" || strings.TrimSpace(c.Keys.Sell) == "" {
		return fmt.Errorf("buy and sell keys must not be blank, got %q and %q", c.Keys.Buy, c.Keys.Sell)
	}

	if strings.EqualFold(c.Keys.Buy, c.Keys.Sell) {
		return fmt.Errorf("buy and sell keys must differ, both are %q", c.Keys.Buy)
	}

	return nil
}
