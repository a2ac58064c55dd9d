package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/shophub/pkg/config"
	"github.com/abgdnv/shophub/pkg/config/configloader"
)

// ServiceName is the configuration file stem and the environment prefix (STOREFRONT_).
const ServiceName = "storefront"

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	AuthService    config.HTTPClientConfig     `koanf:"authservice"`
	CircuitBreaker config.CircuitBreakerConfig `koanf:"circuitbreaker"`
	Session        SessionConfig               `koanf:"session"`
	Log            config.LogConfig            `koanf:"log"`
	Telemetry      config.TelemetryConfig      `koanf:"telemetry"`
}

// SessionConfig locates the durable copy of the signed-in session.
type SessionConfig struct {
	File string `koanf:"file"`
}

func (c *SessionConfig) Validate() error {
	if strings.TrimSpace(c.File) == "" {
		return fmt.Errorf("session.file is not configured")
	}
	return nil
}

// Defaults are the lowest priority configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"authservice.baseurl":                "http://localhost:5000",
		"authservice.timeout":                "10s",
		"circuitbreaker.consecutivefailures": 5,
		"circuitbreaker.errorratepercent":    60,
		"circuitbreaker.maxrequests":         1,
		"circuitbreaker.opentimeout":         "30s",
		"session.file":                       ".shophub/session.json",
		"log.level":                          "warn",
		"log.format":                         "text",
	}
}

// Aliases bind the bare environment variables of a conventional deployment.
var Aliases = []configloader.Alias{
	{Env: "AUTH_API_URL", Path: "authservice.baseurl"},
}

// Load reads the storefront configuration. An empty path uses storefront.yaml in the working directory.
func Load(path string) (*Config, error) {
	return configloader.Load[*Config](ServiceName,
		configloader.WithFile(path),
		configloader.WithDefaults(Defaults()),
		configloader.WithAliases(Aliases...),
	)
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.AuthService.String())
	b.WriteString(c.CircuitBreaker.String())
	b.WriteString(fmt.Sprintf("\n--- Session ---\n  file: %s\n", c.Session.File))
	b.WriteString(c.Log.String())
	b.WriteString(c.Telemetry.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.AuthService, &c.CircuitBreaker, &c.Session, &c.Log, &c.Telemetry,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
