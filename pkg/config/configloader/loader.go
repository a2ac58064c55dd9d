package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Validator interface {
	Validate() error
}

type options struct {
	configFile string
	envFile    string
	defaults   map[string]any
	aliases    []Alias
}

// Alias binds a bare environment variable to a koanf path.
type Alias struct {
	Env  string
	Path string
}

// Option customizes how Load assembles the configuration.
type Option func(*options)

// WithFile overrides the yaml file location. An empty path keeps the default.
func WithFile(path string) Option {
	return func(o *options) {
		if path != "" {
			o.configFile = path
		}
	}
}

// WithDefaults registers the lowest priority values, keyed by koanf path (e.g. "server.port").
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) {
		o.defaults = defaults
	}
}

// WithAliases maps bare environment variables (e.g. PORT) to koanf paths.
// Aliases win over every other source; when two aliases target the same path the later one wins.
func WithAliases(aliases ...Alias) Option {
	return func(o *options) {
		o.aliases = aliases
	}
}

func Load[T Validator](serviceName string, opts ...Option) (T, error) {
	var cfg T
	// Create a new Koanf instance
	k := koanf.New(".")

	// Convention: config file is named as <service_name>.yaml and located in the working directory.
	// envPrefix is set to <SERVICE_NAME>_ to match environment variables.
	o := options{
		configFile: serviceName + ".yaml",
		envFile:    ".env",
	}
	for _, opt := range opts {
		opt(&o)
	}
	envPrefix := fmt.Sprintf("%s_", strings.ToUpper(serviceName))

	// 0. Built-in defaults
	if len(o.defaults) > 0 {
		if err := k.Load(confmap.Provider(o.defaults, "."), nil); err != nil {
			return cfg, fmt.Errorf("error loading defaults: %w", err)
		}
	}

	// 1. Load configuration from yaml file
	if err := k.Load(file.Provider(o.configFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config file '%s': %v", o.configFile, err)
		}
	}

	// 2. Load environment variables from .env file
	envTransformer := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}
	envFileMap, err := godotenv.Read(o.envFile)
	if err == nil {
		envMap := make(map[string]any)
		for key, value := range envFileMap {
			if !strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				continue
			}
			envMap[envTransformer(key)] = value
		}
		// Load the envMap into Koanf
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	// 3. Load environment variables from the system
	if err := k.Load(env.Provider(envPrefix, ".", envTransformer), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	// 4. Bare aliases (PORT, MONGO_URI, ...), the highest priority
	if aliased := resolveAliases(o.aliases, envFileMap); len(aliased) > 0 {
		if err := k.Load(confmap.Provider(aliased, "."), nil); err != nil {
			log.Printf("WARN: error loading aliased env vars: %v", err)
		}
	}

	// 5. Unmarshal the configuration into the Config struct
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// 6. Validate the configuration
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// resolveAliases looks every alias up in the process environment first and the .env file second.
func resolveAliases(aliases []Alias, envFile map[string]string) map[string]any {
	resolved := make(map[string]any)
	for _, a := range aliases {
		if value, ok := os.LookupEnv(a.Env); ok && value != "" {
			resolved[a.Path] = value
			continue
		}
		if value, ok := envFile[a.Env]; ok && value != "" {
			resolved[a.Path] = value
		}
	}
	return resolved
}
