package config

import (
	"fmt"
	"strings"
	"time"
)

type CORSConfig struct {
	AllowedOrigins []string      `koanf:"allowedorigins"`
	MaxAge         time.Duration `koanf:"maxage"`
}

// String returns a string representation of the CORS configuration.
func (c *CORSConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- CORS ---\n")
	b.WriteString(fmt.Sprintf("  allowedorigins: %s\n", strings.Join(c.AllowedOrigins, ",")))
	b.WriteString(fmt.Sprintf("  maxage: %s\n", c.MaxAge))
	return b.String()
}

func (c *CORSConfig) Validate() error {
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("cors.allowedorigins must contain at least one origin")
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("cors.maxage must not be negative")
	}
	return nil
}
