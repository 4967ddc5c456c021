package transport

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/sseplex/security"
	"github.com/kbukum/sseplex/transport/middleware"
	"github.com/kbukum/sseplex/util"
	"github.com/kbukum/sseplex/validation"
)

// Config holds HTTP transport configuration.
type Config struct {
	Host         string                `yaml:"host" mapstructure:"host"`
	Port         int                   `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	URLPrefix    string                `yaml:"url_prefix" mapstructure:"url_prefix"`
	ReadTimeout  int                   `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`   // seconds
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"` // seconds, streams are exempt
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`   // seconds
	MaxBodySize  string                `yaml:"max_body_size" mapstructure:"max_body_size"`                  // e.g. "1MB"
	KeepAlive    string                `yaml:"keep_alive" mapstructure:"keep_alive"`                        // e.g. "15s", empty disables
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	TLS          security.TLSConfig    `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
	c.URLPrefix = NormalizePrefix(c.URLPrefix)
	c.CORS.ApplyDefaults()
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := c.TLS.Validate(); err != nil {
		return err
	}
	_, kaErr := c.KeepAliveInterval()
	_, sizeErr := util.ParseSize(c.MaxBodySize)
	return validation.New().
		Struct(c).
		Check(kaErr == nil, "keep_alive", "must be a duration such as 15s").
		Check(c.MaxBodySize == "" || sizeErr == nil, "max_body_size", "must be a size such as 1MB").
		Err()
}

// Addr returns the configured listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KeepAliveInterval parses KeepAlive. Empty means disabled.
func (c *Config) KeepAliveInterval() (time.Duration, error) {
	if c.KeepAlive == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.KeepAlive)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative keep-alive %s", c.KeepAlive)
	}
	return d, nil
}

// NormalizePrefix turns "events/" or "/events/" into "/events". An empty or
// root prefix becomes "".
func NormalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
