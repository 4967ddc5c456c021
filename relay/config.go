package relay

import (
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/sseplex/security"
	"github.com/kbukum/sseplex/validation"
)

// DefaultChannelPrefix namespaces sseplex topics on a shared Redis.
const DefaultChannelPrefix = "sseplex:"

// Config holds the Redis relay configuration.
type Config struct {
	// Enabled switches publishing from the local broker to Redis pub/sub.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Addr is the Redis server address (host:port).
	Addr string `yaml:"addr" mapstructure:"addr"`

	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	// PoolSize is the maximum number of socket connections.
	PoolSize int `yaml:"pool_size" mapstructure:"pool_size"`

	// MaxRetries is the maximum number of retries before giving up.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`

	// DialTimeout is the timeout for establishing new connections (e.g. "5s").
	DialTimeout string `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// ReadTimeout is the timeout for socket reads (e.g. "3s").
	ReadTimeout string `yaml:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout is the timeout for socket writes (e.g. "3s").
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`

	// ConnectAttempts bounds the startup ping retries.
	ConnectAttempts int `yaml:"connect_attempts" mapstructure:"connect_attempts"`

	// ChannelPrefix is prepended to the topic to form the Redis channel name.
	ChannelPrefix string `yaml:"channel_prefix" mapstructure:"channel_prefix"`

	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "5s"
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "3s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "3s"
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = 3
	}
	if c.ChannelPrefix == "" {
		c.ChannelPrefix = DefaultChannelPrefix
	}
}

// Validate checks addresses, pool size and durations of an enabled relay.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	v := validation.New().
		Check(c.Addr != "", "addr", "is required").
		Check(c.PoolSize > 0, "pool_size", "must be greater than 0")
	for _, d := range [][2]string{
		{"dial_timeout", c.DialTimeout},
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
	} {
		_, err := time.ParseDuration(d[1])
		v.Check(err == nil, d[0], fmt.Sprintf("invalid duration %q", d[1]))
	}
	if err := v.Err(); err != nil {
		return err
	}
	return c.TLS.Validate()
}

func (c *Config) options() (*goredis.Options, error) {
	dialTimeout, _ := time.ParseDuration(c.DialTimeout)
	readTimeout, _ := time.ParseDuration(c.ReadTimeout)
	writeTimeout, _ := time.ParseDuration(c.WriteTimeout)
	tlsConfig, err := c.TLS.ClientConfig()
	if err != nil {
		return nil, err
	}

	return &goredis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MaxRetries:   c.MaxRetries,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		TLSConfig:    tlsConfig,
	}, nil
}
