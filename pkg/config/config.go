// Package config loads placesmcp settings from YAML with environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Directory backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendDynamoDB = "dynamodb"
)

// Environment variables that override file settings.
const (
	EnvAPIKey        = "GOOGLE_MAPS_API_KEY"
	EnvAddr          = "PLACESMCP_ADDR"
	EnvDirectoryFile = "PLACESMCP_DIRECTORY_FILE"
	EnvDynamoTable   = "PLACESMCP_DYNAMODB_TABLE"
	EnvLogLevel      = "PLACESMCP_LOG_LEVEL"
)

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Provider  ProviderConfig  `yaml:"provider"`
	Directory DirectoryConfig `yaml:"directory"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP transport and the widget resource.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	Path      string `yaml:"path"`
	Widget    bool   `yaml:"widget"`
	WidgetURI string `yaml:"widget_uri"`
}

// ProviderConfig holds the maps provider credential, timeouts and rate limits.
type ProviderConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	DetailTimeout     time.Duration `yaml:"detail_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	GeocodeCache      CacheConfig   `yaml:"geocode_cache"`
}

// CacheConfig sizes an expirable LRU cache. A Size of 0 disables it.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// DirectoryConfig selects the allow-list backend and its settings.
type DirectoryConfig struct {
	Backend  string              `yaml:"backend"`
	Places   map[string][]string `yaml:"places"`
	File     string              `yaml:"file"`
	DynamoDB DynamoDBConfig      `yaml:"dynamodb"`
}

// DynamoDBConfig locates the allow-list table.
type DynamoDBConfig struct {
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// SearchConfig tunes the search fan-out.
type SearchConfig struct {
	MaxConcurrency int    `yaml:"max_concurrency"`
	ProviderSource string `yaml:"provider_source"`
}

// LoggingConfig sets the slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			Path:      "/mcp",
			Widget:    true,
			WidgetURI: "ui://widget/places.html",
		},
		Provider: ProviderConfig{
			Timeout:           30 * time.Second,
			DetailTimeout:     5 * time.Second,
			RequestsPerSecond: 10,
			Burst:             10,
			GeocodeCache: CacheConfig{
				Size: 256,
				TTL:  time.Hour,
			},
		},
		Directory: DirectoryConfig{
			Backend: BackendMemory,
		},
		Search: SearchConfig{
			MaxConcurrency: 8,
			ProviderSource: "google",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path uses defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv overrides settings from the environment. lookup is os.LookupEnv
// outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.Provider.APIKey = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvDirectoryFile); ok && v != "" {
		c.Directory.Backend = BackendFile
		c.Directory.File = v
	}
	if v, ok := lookup(EnvDynamoTable); ok && v != "" {
		c.Directory.Backend = BackendDynamoDB
		c.Directory.DynamoDB.Table = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
}

// Validate checks backend names and numeric ranges.
func (c *Config) Validate() error {
	switch c.Directory.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Directory.File == "" {
			return fmt.Errorf("directory.file is required for the %s backend", BackendFile)
		}
	case BackendDynamoDB:
		if c.Directory.DynamoDB.Table == "" {
			return fmt.Errorf("directory.dynamodb.table is required for the %s backend", BackendDynamoDB)
		}
	default:
		return fmt.Errorf("unknown directory backend %q (use memory, file or dynamodb)", c.Directory.Backend)
	}

	if c.Provider.DetailTimeout <= 0 {
		return fmt.Errorf("provider.detail_timeout must be positive")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive")
	}
	if c.Provider.RequestsPerSecond < 0 {
		return fmt.Errorf("provider.requests_per_second must not be negative")
	}
	if c.Provider.GeocodeCache.Size < 0 {
		return fmt.Errorf("provider.geocode_cache.size must not be negative")
	}
	if c.Search.MaxConcurrency < 1 {
		return fmt.Errorf("search.max_concurrency must be at least 1")
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return fmt.Errorf("server.path must start with /")
	}
	if c.Server.Widget && c.Server.WidgetURI == "" {
		return fmt.Errorf("server.widget_uri is required when the widget is enabled")
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown logging format %q (use text or json)", c.Logging.Format)
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown logging level %q", s)
	}
	return level, nil
}

// Marshal renders the configuration as YAML with the API key redacted.
func (c *Config) Marshal() ([]byte, error) {
	redacted := *c
	if redacted.Provider.APIKey != "" {
		redacted.Provider.APIKey = "REDACTED"
	}
	return yaml.Marshal(&redacted)
}
