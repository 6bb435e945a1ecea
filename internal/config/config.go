// Package config provides configuration types and loading for the emulator.
package config

import "time"

// Config represents the complete application configuration.
type Config struct {
	Listen  ListenConfig   `mapstructure:"listen"`
	Anchors []AnchorConfig `mapstructure:"anchors"`
	Capture CaptureConfig  `mapstructure:"capture"`
	Sinks   []SinkConfig   `mapstructure:"sinks"`
	Logging LoggingConfig  `mapstructure:"logging"`
}

// ListenConfig defines the TCP control-plane listener.
type ListenConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// AnchorConfig defines a passive participant present from startup.
type AnchorConfig struct {
	MacAddress string `mapstructure:"mac_address"`
	X          int    `mapstructure:"x"`
	Y          int    `mapstructure:"y"`
	Z          int    `mapstructure:"z"`
}

// CaptureConfig controls per-device wire capture to disk.
type CaptureConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// SinkConfig defines a single event sink destination.
type SinkConfig struct {
	Type    string                 `mapstructure:"type"` // stdout, file, webhook, mqtt
	Enabled bool                   `mapstructure:"enabled"`
	Options map[string]interface{} `mapstructure:",remain"`
}

// FileSinkConfig defines file sink settings.
type FileSinkConfig struct {
	Path       string `mapstructure:"path"`
	Rotate     bool   `mapstructure:"rotate"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// WebhookSinkConfig defines webhook sink settings.
type WebhookSinkConfig struct {
	URL     string            `mapstructure:"url"`
	Method  string            `mapstructure:"method"`
	Headers map[string]string `mapstructure:"headers"`
	Timeout time.Duration     `mapstructure:"timeout"`
}

// MQTTSinkConfig defines MQTT sink settings.
type MQTTSinkConfig struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	ClientID string `mapstructure:"client_id"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen: ListenConfig{
			Host: "127.0.0.1",
			Port: 7000,
		},
		Capture: CaptureConfig{
			Enabled: false,
			Dir:     "captures",
		},
		Sinks: []SinkConfig{
			{
				Type:    "stdout",
				Enabled: true,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
