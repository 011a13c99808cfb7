package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendMemory, cfg.Directory.Backend)
	assert.Equal(t, 5*time.Second, cfg.Provider.DetailTimeout)
	assert.Equal(t, "/mcp", cfg.Server.Path)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "placesmcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
provider:
  detail_timeout: 2s
  geocode_cache:
    size: 10
    ttl: 30m
directory:
  backend: memory
  places:
    downtown: [A, B]
    uptown: [C]
search:
  max_concurrency: 4
logging:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/mcp", cfg.Server.Path, "unset keys keep defaults")
	assert.Equal(t, 2*time.Second, cfg.Provider.DetailTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Provider.GeocodeCache.TTL)
	assert.Equal(t, map[string][]string{"downtown": {"A", "B"}, "uptown": {"C"}}, cfg.Directory.Places)
	assert.Equal(t, 4, cfg.Search.MaxConcurrency)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "error reading config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "error parsing config file")
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "api key and addr",
			env:  map[string]string{EnvAPIKey: "k", EnvAddr: ":7000"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "k", cfg.Provider.APIKey)
				assert.Equal(t, ":7000", cfg.Server.Addr)
			},
		},
		{
			name: "directory file selects file backend",
			env:  map[string]string{EnvDirectoryFile: "/tmp/dir.yaml"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, BackendFile, cfg.Directory.Backend)
				assert.Equal(t, "/tmp/dir.yaml", cfg.Directory.File)
			},
		},
		{
			name: "dynamodb table selects dynamodb backend",
			env:  map[string]string{EnvDynamoTable: "curated"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, BackendDynamoDB, cfg.Directory.Backend)
				assert.Equal(t, "curated", cfg.Directory.DynamoDB.Table)
			},
		},
		{
			name: "empty values are ignored",
			env:  map[string]string{EnvAPIKey: "", EnvLogLevel: ""},
			check: func(t *testing.T, cfg *Config) {
				assert.Empty(t, cfg.Provider.APIKey)
				assert.Equal(t, "info", cfg.Logging.Level)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.ApplyEnv(envMap(tt.env))
			tt.check(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown backend", func(c *Config) { c.Directory.Backend = "postgres" }, "unknown directory backend"},
		{"file without path", func(c *Config) { c.Directory.Backend = BackendFile }, "directory.file"},
		{"dynamo without table", func(c *Config) { c.Directory.Backend = BackendDynamoDB }, "directory.dynamodb.table"},
		{"zero detail timeout", func(c *Config) { c.Provider.DetailTimeout = 0 }, "detail_timeout"},
		{"zero concurrency", func(c *Config) { c.Search.MaxConcurrency = 0 }, "max_concurrency"},
		{"relative path", func(c *Config) { c.Server.Path = "mcp" }, "server.path"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging format"},
		{"negative rps", func(c *Config) { c.Provider.RequestsPerSecond = -1 }, "requests_per_second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestMarshalRedactsKey(t *testing.T) {
	cfg := Default()
	cfg.Provider.APIKey = "secret"

	out, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), "REDACTED")
	assert.NotContains(t, string(out), "secret")
	assert.Equal(t, "secret", cfg.Provider.APIKey)
}
