package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abgdnv/shophub/pkg/config"
	"github.com/abgdnv/shophub/pkg/config/configloader"
	"golang.org/x/crypto/bcrypt"
)

// ServiceName is the configuration file stem and the environment prefix (AUTH_).
const ServiceName = "auth"

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig      `koanf:"server"`
	Database   config.DatabaseConfig  `koanf:"database"`
	JWT        config.JWTConfig       `koanf:"jwt"`
	Password   PasswordConfig         `koanf:"password"`
	CORS       config.CORSConfig      `koanf:"cors"`
	Nats       config.NATSConfig      `koanf:"nats"`
	Log        config.LogConfig       `koanf:"log"`
	PProf      config.PProfConfig     `koanf:"pprof"`
	Telemetry  config.TelemetryConfig `koanf:"telemetry"`
	Shutdown   config.ShutdownConfig  `koanf:"shutdown"`
}

// PasswordConfig tunes password hashing.
type PasswordConfig struct {
	BcryptCost int `koanf:"bcryptcost"`
}

func (c *PasswordConfig) Validate() error {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("password.bcryptcost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// Defaults are the lowest priority configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":               5000,
		"server.maxheaderbytes":     1 << 20,
		"server.timeout.read":       "10s",
		"server.timeout.write":      "10s",
		"server.timeout.idle":       "60s",
		"server.timeout.readheader": "5s",
		"database.url":              "mongodb://localhost:27017/shophub",
		"database.timeout":          "10s",
		"jwt.issuer":                "shophub",
		"jwt.ttl":                   "24h",
		"password.bcryptcost":       bcrypt.DefaultCost,
		"cors.allowedorigins":       []string{"*"},
		"cors.maxage":               "5m",
		"nats.stream":               "USERS",
		"nats.timeout":              "5s",
		"nats.duplicates":           "2m",
		"log.level":                 "info",
		"log.format":                "json",
		"telemetry.metrics.path":    "/metrics",
		"shutdown.timeout":          "5s",
	}
}

// Aliases bind the bare environment variables of a conventional deployment.
var Aliases = []configloader.Alias{
	{Env: "PORT", Path: "server.port"},
	{Env: "DATABASE_URL", Path: "database.url"},
	{Env: "MONGO_URI", Path: "database.url"},
	{Env: "JWT_SECRET", Path: "jwt.secret"},
}

// Load reads the auth service configuration. An empty path uses auth.yaml in the working directory.
func Load(path string) (*Config, error) {
	return configloader.Load[*Config](ServiceName,
		configloader.WithFile(path),
		configloader.WithDefaults(Defaults()),
		configloader.WithAliases(Aliases...),
	)
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Database.String())
	b.WriteString(c.JWT.String())
	b.WriteString(fmt.Sprintf("\n--- Password ---\n  bcryptcost: %d\n", c.Password.BcryptCost))
	b.WriteString(c.CORS.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret has no default: set AUTH_JWT_SECRET or JWT_SECRET, or jwt.secret in auth.yaml")
	}
	validators := []configloader.Validator{
		&c.HTTPServer, &c.Database, &c.JWT, &c.Password, &c.CORS,
		&c.Nats, &c.Log, &c.PProf, &c.Telemetry, &c.Shutdown,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
