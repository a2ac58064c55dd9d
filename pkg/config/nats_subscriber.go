package config

import (
	"fmt"
	"strings"
	"time"
)

// SubscriberConfig configures a durable JetStream pull consumer.
type SubscriberConfig struct {
	Subject  string        `koanf:"subject"`
	Consumer string        `koanf:"consumer"`
	Batch    int           `koanf:"batch"`
	MaxWait  time.Duration `koanf:"maxwait"`
	Backoff  time.Duration `koanf:"backoff"`
	Workers  int           `koanf:"workers"`
}

// String returns a string representation of the NATS Subscriber configuration.
func (c *SubscriberConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS Subscriber ---\n")
	b.WriteString(fmt.Sprintf("  subject: %s\n", c.Subject))
	b.WriteString(fmt.Sprintf("  consumer: %s\n", c.Consumer))
	b.WriteString(fmt.Sprintf("  batch: %d\n", c.Batch))
	b.WriteString(fmt.Sprintf("  maxwait: %s\n", c.MaxWait))
	b.WriteString(fmt.Sprintf("  backoff: %s\n", c.Backoff))
	b.WriteString(fmt.Sprintf("  workers: %d\n", c.Workers))
	return b.String()
}

func (c *SubscriberConfig) Validate() error {
	if c.Subject == "" {
		return fmt.Errorf("subscriber: subject is not configured")
	}
	if c.Consumer == "" {
		return fmt.Errorf("subscriber: consumer is not configured")
	}
	if c.Batch <= 0 {
		return fmt.Errorf("subscriber: batch must be greater than zero")
	}
	if c.MaxWait <= 0 {
		return fmt.Errorf("subscriber: maxwait must be greater than zero")
	}
	if c.Backoff <= 0 {
		return fmt.Errorf("subscriber: backoff must be greater than zero")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("subscriber: workers must be greater than zero")
	}
	return nil
}
