// Package config provides configuration loading from YAML files and the environment.
package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PLAYERD_SERVER_TOKEN.
const EnvPrefix = "PLAYERD_"

// Config represents the daemon configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Player  PlayerConfig  `yaml:"player" envPrefix:"PLAYER_"`
	Backend BackendConfig `yaml:"backend" envPrefix:"BACKEND_"`
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`
}

// ServerConfig represents the control API server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" env:"ADDR" default:":8080" validate:"required"`
	Token string      `yaml:"token" env:"TOKEN"` // empty disables authentication
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// PlayerConfig represents what the daemon plays on startup.
type PlayerConfig struct {
	Media     string   `yaml:"media" env:"MEDIA" validate:"required_if=Autostart true"`
	Subtitle  string   `yaml:"subtitle" env:"SUBTITLE"`
	Autostart bool     `yaml:"autostart" env:"AUTOSTART"`
	Options   []string `yaml:"options" env:"OPTIONS" envSeparator:","` // backend init options
}

// BackendConfig selects the decoder backend.
type BackendConfig struct {
	Type     string         `yaml:"type" env:"TYPE" default:"simulated" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL" default:"info" validate:"oneof=trace debug info warn warning error"`
	Output string `yaml:"output" env:"OUTPUT" default:"stdout" validate:"oneof=stdout stderr file"`
	Format string `yaml:"format" env:"FORMAT" default:"console" validate:"oneof=console json"`
	File   string `yaml:"file" env:"FILE" validate:"required_if=Output file"`
}

// Load loads configuration from a YAML file. An empty path skips the file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with PLAYERD_* environment variables.
func (c *Config) overrideFromEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.Wrap(err, "failed to parse environment")
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// AuthEnabled reports whether the control API requires a token.
func (c *Config) AuthEnabled() bool {
	return c.Server.Token != ""
}
