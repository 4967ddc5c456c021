package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/kbukum/sseplex/authgate"
	"github.com/kbukum/sseplex/broker"
	"github.com/kbukum/sseplex/config"
	"github.com/kbukum/sseplex/observability"
	"github.com/kbukum/sseplex/relay"
	"github.com/kbukum/sseplex/transport"
	"github.com/kbukum/sseplex/validation"
	"github.com/kbukum/sseplex/version"
)

const serviceName = "sseplex"

// Config is the sseplex process configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	HTTP          transport.Config       `yaml:"http" mapstructure:"http"`
	Heartbeat     broker.HeartbeatConfig `yaml:"heartbeat" mapstructure:"heartbeat"`
	Broker        broker.Config          `yaml:"broker" mapstructure:"broker"`
	Auth          authgate.Config        `yaml:"auth" mapstructure:"auth"`
	Publish       PublishConfig          `yaml:"publish" mapstructure:"publish"`
	Redis         relay.Config           `yaml:"redis" mapstructure:"redis"`
	Observability observability.Config   `yaml:"observability" mapstructure:"observability"`
}

// PublishConfig throttles POST per client IP. A zero rate disables it.
type PublishConfig struct {
	Rate  float64 `yaml:"rate" mapstructure:"rate" validate:"gte=0"`
	Burst int     `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// ApplyDefaults fills zero values of every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.HTTP.ApplyDefaults()

	// The top-level heartbeat section drives the broker's heartbeat.
	c.Broker.Heartbeat = c.Heartbeat
	c.Broker.ApplyDefaults()
	c.Heartbeat = c.Broker.Heartbeat

	c.Auth.ApplyDefaults()
	if c.Redis.Enabled {
		c.Redis.ApplyDefaults()
	}
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Broker.Validate(); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := validation.Validate(&c.Publish); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}

// flags are the command-line overrides shared by all commands.
type flags struct {
	ConfigPath string
	EnvFile    string
	Addr       string
	Prefix     string
	PrefixSet  bool
	Heartbeat  bool
}

// loadConfig reads the config file, .env and SSEPLEX_* environment, then
// applies the command-line overrides.
func loadConfig(f flags) (*Config, error) {
	opts := []config.LoaderOption{
		config.WithEnvPrefix("SSEPLEX"),
		config.WithEnvAlias("SSEPLEX_URL_PREFIX", "http.url_prefix"),
	}
	if f.ConfigPath != "" {
		opts = append(opts, config.WithConfigFile(f.ConfigPath))
	}
	if f.EnvFile != "" {
		opts = append(opts, config.WithEnvFile(f.EnvFile))
	}

	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}

	if _, ok := os.LookupEnv("SSEPLEX_DUMMY_SENDER"); ok {
		cfg.Heartbeat.Enabled = true
	}
	if f.Heartbeat {
		cfg.Heartbeat.Enabled = true
	}
	if f.PrefixSet {
		cfg.HTTP.URLPrefix = f.Prefix
	}
	if f.Addr != "" {
		host, port, err := net.SplitHostPort(f.Addr)
		if err != nil {
			return nil, fmt.Errorf("--addr: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("--addr: invalid port %q", port)
		}
		cfg.HTTP.Host, cfg.HTTP.Port = host, p
	}
	return cfg, nil
}
