// Package config loads the engine configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrUnknownLogLevel is returned when the configured log level is not one
// of debug, info, warn, error.
var ErrUnknownLogLevel = errors.New("unknown log level")

// Config is the engine configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Mods   ModsConfig   `yaml:"mods"`
	Bridge BridgeConfig `yaml:"bridge"`
}

// ModsConfig configures the Lua mods host.
type ModsConfig struct {
	// Dir is the directory scanned for *.lua mod scripts.
	// Empty disables the mods host.
	Dir string `yaml:"dir"`

	// Watch enables hot reloading of scripts on file changes.
	Watch bool `yaml:"watch"`
}

// BridgeConfig configures the legacy event bridge.
type BridgeConfig struct {
	// Enabled turns on bidirectional forwarding to the legacy bus.
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Mods: ModsConfig{
			Dir:   "mods",
			Watch: true,
		},
		Bridge: BridgeConfig{
			Enabled: true,
		},
	}
}

// Load reads a YAML config file. Fields absent from the file keep their
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot be used.
func (c Config) Validate() error {
	if _, err := c.ZapLevel(); err != nil {
		return err
	}
	return nil
}

// ZapLevel converts the configured log level to a zap level.
func (c Config) ZapLevel() (zapcore.Level, error) {
	switch c.LogLevel {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrUnknownLogLevel, c.LogLevel)
	}
}
