package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/xrs-network/xrsd/internal/tracing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, ":8545", cfg.Server.Addr)
	assert.Equal(t, BackendSQLite, cfg.Database.Backend)
	assert.NotEmpty(t, cfg.Resolver.Endpoint)
	assert.False(t, cfg.Tracing.Enabled)
	require.NoError(t, Validate(cfg))
}

func TestValidate_Backend(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Backend = "postgres"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.backend")
}

func TestValidateTracing(t *testing.T) {
	cases := []struct {
		label string
		cfg   tracing.Config
		ok    bool
	}{
		{"zero value", tracing.Config{SampleRate: 1.0}, true},
		{"sample rate too high", tracing.Config{SampleRate: 1.5}, false},
		{"unknown exporter", tracing.Config{Exporter: "pigeon", SampleRate: 1.0}, false},
		{"file exporter without path", tracing.Config{Enabled: true, Exporter: "file", SampleRate: 1.0}, false},
		{"file exporter with path", tracing.Config{Enabled: true, Exporter: "file", FilePath: "/tmp/t.jsonl", SampleRate: 1.0}, true},
		{"otlp without endpoint", tracing.Config{Enabled: true, Exporter: "otlp", SampleRate: 1.0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			err := ValidateTracing(tc.cfg)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "server:")
	assert.Contains(t, string(data), "backend: sqlite")

	// The template must parse as YAML.
	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))
}

func TestSaveServerAddr_PreservesComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	original := `# precious comment
server:
  addr: ":8545"

database:
  backend: memory  # keep me ephemeral
`
	require.NoError(t, os.WriteFile(path, []byte(original), 0o600))

	require.NoError(t, SaveServerAddr(path, ":9000"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# precious comment")
	assert.Contains(t, content, "# keep me ephemeral")
	assert.Contains(t, content, ":9000")
	assert.NotContains(t, content, ":8545")
}

func TestSaveServerAddr_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveServerAddr(path, ":7000"))

	var parsed struct {
		Server struct {
			Addr string `yaml:"addr"`
		} `yaml:"server"`
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, ":7000", parsed.Server.Addr)
}

func TestSaveResolverEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resolver:\n  endpoint: http://old\n"), 0o600))

	require.NoError(t, SaveResolverEndpoint(path, "http://new:8545"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "http://new:8545")
}
