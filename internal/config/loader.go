package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads the configuration from viper and returns a Config struct.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	cfg.Listen.Host = viper.GetString("listen.host")
	if cfg.Listen.Host == "" {
		cfg.Listen.Host = "127.0.0.1"
	}
	cfg.Listen.Port = viper.GetInt("listen.port")
	if cfg.Listen.Port == 0 {
		cfg.Listen.Port = 7000
	}

	var anchors []AnchorConfig
	if err := viper.UnmarshalKey("anchors", &anchors); err == nil {
		cfg.Anchors = anchors
	}

	cfg.Capture.Enabled = viper.GetBool("capture.enabled")
	cfg.Capture.Dir = viper.GetString("capture.dir")
	if cfg.Capture.Dir == "" {
		cfg.Capture.Dir = "captures"
	}

	sinksRaw := viper.Get("sinks")
	if sinksRaw != nil {
		if sinks, ok := sinksRaw.([]interface{}); ok {
			cfg.Sinks = make([]SinkConfig, 0, len(sinks))
			for _, s := range sinks {
				if sinkMap, ok := s.(map[string]interface{}); ok {
					cfg.Sinks = append(cfg.Sinks, SinkConfig{
						Type:    getString(sinkMap, "type"),
						Enabled: getBool(sinkMap, "enabled"),
						Options: sinkMap,
					})
				}
			}
		}
	}

	cfg.Logging.Level = viper.GetString("logging.level")
	cfg.Logging.Format = viper.GetString("logging.format")
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Listen.Port <= 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port is invalid: %d", c.Listen.Port)
	}

	for i, a := range c.Anchors {
		if a.MacAddress == "" {
			return fmt.Errorf("anchors[%d].mac_address is required", i)
		}
	}

	enabledSinks := 0
	for i, s := range c.Sinks {
		if s.Enabled {
			enabledSinks++
		}
		if s.Type == "" {
			return fmt.Errorf("sinks[%d].type is required", i)
		}
		switch s.Type {
		case "stdout", "file", "webhook", "mqtt":
		default:
			return fmt.Errorf("sinks[%d].type is invalid: %s", i, s.Type)
		}
	}
	if len(c.Sinks) > 0 && enabledSinks == 0 {
		return fmt.Errorf("at least one sink must be enabled when sinks are configured")
	}

	return nil
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
