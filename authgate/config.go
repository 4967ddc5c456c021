package authgate

import (
	"time"

	"github.com/kbukum/sseplex/validation"
)

// Signing algorithms accepted for bearer tokens.
const (
	HS256 = "HS256"
	HS384 = "HS384"
	HS512 = "HS512"
)

// DefaultSubject is the subject every token must carry unless configured.
const DefaultSubject = "sseplex"

// Config configures the authorization gate. An empty Secret disables it.
type Config struct {
	Secret    string        `yaml:"secret" mapstructure:"secret"`
	Subject   string        `yaml:"subject" mapstructure:"subject"`
	Algorithm string        `yaml:"algorithm" mapstructure:"algorithm" validate:"oneof=HS256 HS384 HS512"`
	Leeway    time.Duration `yaml:"leeway" mapstructure:"leeway" validate:"gte=0"`
}

// Enabled reports whether tokens are checked at all.
func (c *Config) Enabled() bool { return c.Secret != "" }

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Subject == "" {
		c.Subject = DefaultSubject
	}
	if c.Algorithm == "" {
		c.Algorithm = HS256
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
