package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/shophub/pkg/config"
	"github.com/abgdnv/shophub/pkg/config/configloader"
	"github.com/abgdnv/shophub/pkg/messaging"
)

// ServiceName is the configuration file stem and the environment prefix (NOTIFIER_).
const ServiceName = "notifier"

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

// Defaults are the lowest priority configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"nats.enabled":        true,
		"nats.url":            "nats://localhost:4222",
		"nats.stream":         "USERS",
		"nats.timeout":        "5s",
		"nats.duplicates":     "2m",
		"subscriber.subject":  messaging.UsersRegisteredSubject,
		"subscriber.consumer": "notifier",
		"subscriber.batch":    10,
		"subscriber.maxwait":  "5s",
		"subscriber.backoff":  "1s",
		"subscriber.workers":  2,
		"log.level":           "info",
		"log.format":          "json",
		"shutdown.timeout":    "5s",
	}
}

// Aliases bind the bare environment variables of a conventional deployment.
var Aliases = []configloader.Alias{
	{Env: "NATS_URL", Path: "nats.url"},
}

// Load reads the notifier configuration. An empty path uses notifier.yaml in the working directory.
func Load(path string) (*Config, error) {
	return configloader.Load[*Config](ServiceName,
		configloader.WithFile(path),
		configloader.WithDefaults(Defaults()),
		configloader.WithAliases(Aliases...),
	)
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.Nats.String())
	b.WriteString(c.Subscriber.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if !c.Nats.Enabled {
		return fmt.Errorf("the notifier cannot run with NATS disabled")
	}
	validators := []configloader.Validator{&c.Log, &c.PProf, &c.Nats, &c.Subscriber, &c.Shutdown}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
