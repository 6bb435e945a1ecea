package events

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hasanawais/pica/internal/config"
)

// New builds a Sink from a SinkConfig: a type switch over a string
// discriminant, each branch pulling its settings out of the config's
// free-form Options bag.
func New(cfg config.SinkConfig, log *zap.Logger) (Sink, error) {
	switch cfg.Type {
	case "stdout":
		return NewStdout(), nil
	case "file":
		return NewFile(FileOptions{
			Path:       optString(cfg.Options, "path", "pica-events.log"),
			MaxSizeMB:  optInt(cfg.Options, "max_size_mb", 100),
			MaxBackups: optInt(cfg.Options, "max_backups", 5),
			MaxAgeDays: optInt(cfg.Options, "max_age_days", 0),
		}), nil
	case "webhook":
		return NewWebhook(WebhookOptions{
			URL:     optString(cfg.Options, "url", ""),
			Method:  optString(cfg.Options, "method", ""),
			Headers: optStringMap(cfg.Options, "headers"),
			Timeout: optDuration(cfg.Options, "timeout", 30*time.Second),
		})
	case "mqtt":
		return NewMQTT(MQTTOptions{
			Broker:   optString(cfg.Options, "broker", ""),
			Topic:    optString(cfg.Options, "topic", "pica/events"),
			Username: optString(cfg.Options, "username", ""),
			Password: optString(cfg.Options, "password", ""),
			ClientID: optString(cfg.Options, "client_id", ""),
		}, log)
	default:
		return nil, fmt.Errorf("events: unknown sink type %q", cfg.Type)
	}
}

func optString(m map[string]interface{}, key, def string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func optInt(m map[string]interface{}, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func optDuration(m map[string]interface{}, key string, def time.Duration) time.Duration {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			if d, err := time.ParseDuration(s); err == nil {
				return d
			}
		}
	}
	return def
}

func optStringMap(m map[string]interface{}, key string) map[string]string {
	out := make(map[string]string)
	if raw, ok := m[key].(map[string]interface{}); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}
