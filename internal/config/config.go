// Package config loads runtime configuration from an optional TOML file and
// WINUI_* environment variables. The environment always wins; a missing
// config file is not an error.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config is the effective runtime configuration.
type Config struct {
	// DisableSymbols suppresses native stack symbolization in fault reports.
	DisableSymbols bool `mapstructure:"disable_symbols"`
	// EnableBootstrapShutdown tears down the runtime bootstrap during
	// shutdown instead of leaving it for process exit.
	EnableBootstrapShutdown bool `mapstructure:"enable_bootstrap_shutdown"`
	// SkipUninit skips backend uninitialization entirely during shutdown.
	SkipUninit bool `mapstructure:"skip_uninit"`

	Logging LoggingConfig `mapstructure:"logging"`
	Window  WindowConfig  `mapstructure:"window"`
}

// LoggingConfig mirrors the logging package knobs.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WindowConfig holds the defaults applied when a window is created without
// explicit parameters.
type WindowConfig struct {
	Title  string  `mapstructure:"title"`
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
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

	v.SetConfigName("winui")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WINUI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Toggles documented as bare WINUI_* names rather than dotted keys.
	if err := v.BindEnv("disable_symbols", "WINUI_DISABLE_SYMBOLS"); err != nil {
		return nil, fmt.Errorf("failed to bind WINUI_DISABLE_SYMBOLS: %w", err)
	}
	if err := v.BindEnv("enable_bootstrap_shutdown", "WINUI_ENABLE_BOOTSTRAP_SHUTDOWN"); err != nil {
		return nil, fmt.Errorf("failed to bind WINUI_ENABLE_BOOTSTRAP_SHUTDOWN: %w", err)
	}
	if err := v.BindEnv("skip_uninit", "WINUI_SKIP_UNINIT"); err != nil {
		return nil, fmt.Errorf("failed to bind WINUI_SKIP_UNINIT: %w", err)
	}
	if err := v.BindEnv("logging.level", "WINUI_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("failed to bind WINUI_LOG_LEVEL: %w", err)
	}
	if err := v.BindEnv("logging.format", "WINUI_LOG_FORMAT"); err != nil {
		return nil, fmt.Errorf("failed to bind WINUI_LOG_FORMAT: %w", err)
	}

	return &Manager{
		viper:     v,
		callbacks: make([]func(*Config), 0),
	}, nil
}

// Load loads the configuration from file and environment variables.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setDefaults()

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// No file is fine, environment and defaults apply.
	}

	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	normalizeConfig(config)

	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	m.viper.SetDefault("disable_symbols", false)
	m.viper.SetDefault("enable_bootstrap_shutdown", false)
	m.viper.SetDefault("skip_uninit", false)
	m.viper.SetDefault("logging.level", "info")
	m.viper.SetDefault("logging.format", "console")
	m.viper.SetDefault("window.title", "WinUI Window")
	m.viper.SetDefault("window.width", 800.0)
	m.viper.SetDefault("window.height", 600.0)
}

func normalizeConfig(c *Config) {
	if c.Window.Width <= 0 {
		c.Window.Width = 800
	}
	if c.Window.Height <= 0 {
		c.Window.Height = 600
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		c.Logging.Format = "console"
	}
}

// Get returns the current configuration. Load must have been called.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Default returns the built-in configuration with no file or environment
// applied.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Window:  WindowConfig{Title: "WinUI Window", Width: 800, Height: 600},
	}
}
