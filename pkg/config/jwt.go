package config

import (
	"fmt"
	"strings"
	"time"
)

type JWTConfig struct {
	Secret string        `koanf:"secret"`
	Issuer string        `koanf:"issuer"`
	TTL    time.Duration `koanf:"ttl"`
}

const minSecretLength = 16

// String returns a string representation of the JWT configuration. The secret is never printed.
func (c *JWTConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- JWT ---\n")
	b.WriteString(fmt.Sprintf("  issuer: %s\n", c.Issuer))
	b.WriteString(fmt.Sprintf("  ttl: %s\n", c.TTL))
	return b.String()
}

func (c *JWTConfig) Validate() error {
	if len(c.Secret) < minSecretLength {
		return fmt.Errorf("jwt.secret must be at least %d characters long", minSecretLength)
	}
	if c.Issuer == "" {
		return fmt.Errorf("jwt.issuer cannot be empty")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("jwt.ttl must be greater than 0")
	}
	return nil
}
