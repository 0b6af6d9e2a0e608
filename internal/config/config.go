// Package config provides configuration management for serpref with Viper
// integration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config represents the complete configuration for serpref.
type Config struct {
	Logging     LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Cache       CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Extract     ExtractConfig `mapstructure:"extract" yaml:"extract"`
	CustomRules []CustomRule  `mapstructure:"custom_rules" yaml:"custom_rules"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// CacheConfig holds cache sizing configuration.
type CacheConfig struct {
	DomainCacheSize int `mapstructure:"domain_cache_size" yaml:"domain_cache_size"`
}

// ExtractConfig holds the default extraction switches.
type ExtractConfig struct {
	LowerCase          bool `mapstructure:"lower_case" yaml:"lower_case"`
	Trim               bool `mapstructure:"trim" yaml:"trim"`
	CollapseWhitespace bool `mapstructure:"collapse_whitespace" yaml:"collapse_whitespace"`
	NaiveFallback      bool `mapstructure:"naive_fallback" yaml:"naive_fallback"`
}

// CustomRule declares a user-supplied engine rule registered on startup.
type CustomRule struct {
	Key        string   `mapstructure:"key" yaml:"key"`
	Engine     string   `mapstructure:"engine" yaml:"engine"`
	Extractors []string `mapstructure:"extractors" yaml:"extractors"`
	Link       string   `mapstructure:"link" yaml:"link"`
	Charsets   []string `mapstructure:"charsets" yaml:"charsets"`
}

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	v := viper.New()

	// Supports config.yaml, config.json, config.toml, etc.
	v.SetConfigName("config")

	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // current directory for development

	v.SetEnvPrefix("SERPREF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"logging.level":               "LOG_LEVEL",
		"logging.format":              "LOG_FORMAT",
		"cache.domain_cache_size":     "DOMAIN_CACHE_SIZE",
		"extract.lower_case":          "EXTRACT_LOWER_CASE",
		"extract.trim":                "EXTRACT_TRIM",
		"extract.collapse_whitespace": "EXTRACT_COLLAPSE_WHITESPACE",
		"extract.naive_fallback":      "EXTRACT_NAIVE_FALLBACK",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "SERPREF_"+env); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable %s: %w", env, err)
		}
	}

	return &Manager{
		viper:     v,
		callbacks: make([]func(*Config), 0),
	}, nil
}

// Load loads the configuration from file and environment variables. A
// missing config file is not an error; the defaults apply.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setDefaults()

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	m.config = config
	return nil
}

// Get returns the current configuration (thread-safe).
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification
	configCopy := *m.config
	return &configCopy
}

// Watch starts watching the config file for changes and reloads
// automatically.
func (m *Manager) Watch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return
	}

	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(_ fsnotify.Event) {
		if err := m.reload(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to reload config: %v\n", err)
			return
		}

		m.mu.RLock()
		config := m.config
		callbacks := make([]func(*Config), len(m.callbacks))
		copy(callbacks, m.callbacks)
		m.mu.RUnlock()

		for _, callback := range callbacks {
			callback(config)
		}
	})

	m.watching = true
}

// OnConfigChange registers a callback invoked after each successful reload.
func (m *Manager) OnConfigChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callbacks = append(m.callbacks, callback)
}

func (m *Manager) reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.viper.ReadInConfig(); err != nil {
		return err
	}
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return err
	}
	m.config = config
	return nil
}

// setDefaults sets default configuration values in Viper.
func (m *Manager) setDefaults() {
	defaults := DefaultConfig()

	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)
	m.viper.SetDefault("cache.domain_cache_size", defaults.Cache.DomainCacheSize)
	m.viper.SetDefault("extract.lower_case", defaults.Extract.LowerCase)
	m.viper.SetDefault("extract.trim", defaults.Extract.Trim)
	m.viper.SetDefault("extract.collapse_whitespace", defaults.Extract.CollapseWhitespace)
	m.viper.SetDefault("extract.naive_fallback", defaults.Extract.NaiveFallback)
}
