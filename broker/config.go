package broker

import (
	"time"

	"github.com/kbukum/sseplex/validation"
)

// Config holds broker tuning and heartbeat settings.
type Config struct {
	InboxSize int `yaml:"inbox_size" mapstructure:"inbox_size" validate:"gte=0"`
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size" validate:"gte=0"`

	Heartbeat HeartbeatConfig `yaml:"heartbeat" mapstructure:"heartbeat"`
}

// HeartbeatConfig controls the synthetic publisher. Disabled by default.
type HeartbeatConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.InboxSize <= 0 {
		c.InboxSize = DefaultInboxSize
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.Heartbeat.Interval <= 0 {
		c.Heartbeat.Interval = DefaultHeartbeatInterval
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
