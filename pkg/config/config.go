package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the gateway configuration loaded from gateway_config.yaml.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	Tello    TelloConfig    `yaml:"tello"`
	Commands CommandsConfig `yaml:"commands"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" env:"GATEWAY_LOG_LEVEL"`
	LogPath string `yaml:"log_path,omitempty" env:"GATEWAY_LOG_PATH"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	HTTPPort int `yaml:"http_port" env:"GATEWAY_HTTP_PORT"`
}

// TelloConfig holds the drone transport settings.
type TelloConfig struct {
	Address           string `yaml:"address" env:"GATEWAY_TELLO_ADDRESS"`
	StateBindAddress  string `yaml:"state_bind_address" env:"GATEWAY_TELLO_STATE_BIND_ADDRESS"`
	ResponseTimeoutMs int    `yaml:"response_timeout_ms" env:"GATEWAY_TELLO_RESPONSE_TIMEOUT_MS"`
	StateStalenessMs  int    `yaml:"state_staleness_ms" env:"GATEWAY_TELLO_STATE_STALENESS_MS"`
}

// CommandDefaults holds per-surface defaults for move distance and
// rotation angle when the client omits them.
type CommandDefaults struct {
	MoveDistanceCm int `yaml:"move_distance_cm"`
	RotateAngleDeg int `yaml:"rotate_angle_deg"`
}

// CommandsConfig holds command defaults for each client surface.
// The socket surface historically used a fixed 20 for both values while
// the HTTP surface defaulted the rotation angle to 90.
type CommandsConfig struct {
	Socket CommandDefaults `yaml:"socket_defaults"`
	HTTP   CommandDefaults `yaml:"http_defaults"`
}

// LoadConfig loads the gateway configuration from configDir/gateway_config.yaml,
// applies GATEWAY_* environment variable overrides, fills defaults and
// validates required fields.
func LoadConfig(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, "gateway_config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading gateway config file '%s': %w", configPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing gateway config file '%s': %w", configPath, err)
	}

	// Environment variables take precedence over file values
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error applying environment overrides: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Tello.ResponseTimeoutMs == 0 {
		c.Tello.ResponseTimeoutMs = 7000
	}
	if c.Tello.StateStalenessMs == 0 {
		c.Tello.StateStalenessMs = 2000
	}
	if c.Commands.Socket.MoveDistanceCm == 0 {
		c.Commands.Socket.MoveDistanceCm = 20
	}
	if c.Commands.Socket.RotateAngleDeg == 0 {
		c.Commands.Socket.RotateAngleDeg = 20
	}
	if c.Commands.HTTP.MoveDistanceCm == 0 {
		c.Commands.HTTP.MoveDistanceCm = 20
	}
	if c.Commands.HTTP.RotateAngleDeg == 0 {
		c.Commands.HTTP.RotateAngleDeg = 90
	}
}

func (c *Config) validate() error {
	if c.Tello.Address == "" {
		return fmt.Errorf("missing required field in gateway config: tello.address")
	}
	if c.Tello.StateBindAddress == "" {
		return fmt.Errorf("missing required field in gateway config: tello.state_bind_address")
	}
	return nil
}
