package config

import (
	"fmt"
	"strings"
	"time"
)

// NATSConfig configures the JetStream connection and the user events stream.
// When Enabled is false the auth service runs without publishing events.
type NATSConfig struct {
	Enabled bool          `koanf:"enabled"`
	Url     string        `koanf:"url"`
	Stream  string        `koanf:"stream"`
	Timeout time.Duration `koanf:"timeout"`
	// Duplicates is the window in which JetStream drops events with a repeated message id.
	Duplicates time.Duration `koanf:"duplicates"`
	MaxAge     time.Duration `koanf:"maxage"`
}

func (c *NATSConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS ---\n")
	fmt.Fprintf(&b, "  enabled: %t\n", c.Enabled)
	if !c.Enabled {
		return b.String()
	}
	fmt.Fprintf(&b, "  url: %s\n", MaskURL(c.Url))
	fmt.Fprintf(&b, "  stream: %s (duplicates %s, max age %s)\n", c.Stream, orDefault(c.Duplicates), orDefault(c.MaxAge))
	fmt.Fprintf(&b, "  timeout: %s\n", c.Timeout)
	return b.String()
}

func (c *NATSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Url == "" {
		return fmt.Errorf("NATS URL is not configured")
	}
	if c.Stream == "" {
		return fmt.Errorf("NATS stream is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("NATS dial timeout is not configured")
	}
	if c.Duplicates < 0 || c.MaxAge < 0 {
		return fmt.Errorf("NATS stream durations must not be negative")
	}
	if c.MaxAge > 0 && c.Duplicates > c.MaxAge {
		return fmt.Errorf("NATS duplicates window %s exceeds the stream max age %s", c.Duplicates, c.MaxAge)
	}
	return nil
}

func orDefault(d time.Duration) string {
	if d == 0 {
		return "server default"
	}
	return d.String()
}
