package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/arbor/internal/tracing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, 100*time.Millisecond, cfg.TickInterval)
	require.Equal(t, "div", cfg.Projector.Selector)
	require.Equal(t, "renderableSet", cfg.Projector.ContextKey)
	require.False(t, cfg.Projector.Advanced)
	require.Equal(t, "dark", cfg.Markdown.Style)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "file", cfg.Tracing.Exporter)
	require.Empty(t, cfg.Tracing.FilePath, "file path is derived at runtime")
	require.True(t, cfg.Flags["scene-watch"])
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"negative tick", func(c *Config) { c.TickInterval = -time.Second }, "tick_interval must not be negative"},
		{"bad markdown style", func(c *Config) { c.Markdown.Style = "neon" }, "markdown.style must be"},
		{"negative width", func(c *Config) { c.Markdown.Width = -1 }, "markdown.width must not be negative"},
		{"negative ttl", func(c *Config) { c.Markdown.CacheTTL = -time.Minute }, "markdown.cache_ttl"},
		{"empty style ok", func(c *Config) { c.Markdown.Style = "" }, ""},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, `log.level: unknown log level "loud"`},
		{"log level", func(c *Config) { c.Log.Level = "warn" }, ""},
		{"sample rate high", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "sample_rate must be between"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		cfg     tracing.Config
		wantErr string
	}{
		{"zero value", tracing.Config{}, ""},
		{"negative sample rate", tracing.Config{SampleRate: -0.1}, "sample_rate must be between 0.0 and 1.0"},
		{"unknown exporter", tracing.Config{Exporter: "jaeger"}, "tracing.exporter must be"},
		{"file without path disabled", tracing.Config{Exporter: "file"}, ""},
		{"file without path enabled", tracing.Config{Enabled: true, Exporter: "file"}, "tracing.file_path is required"},
		{"otlp without endpoint", tracing.Config{Enabled: true, Exporter: "otlp"}, "tracing.otlp_endpoint is required"},
		{"otlp with endpoint", tracing.Config{Enabled: true, Exporter: "otlp", OTLPEndpoint: "localhost:4317", SampleRate: 0.5}, ""},
		{"stdout", tracing.Config{Enabled: true, Exporter: "stdout", SampleRate: 1}, ""},
		{"negative max file size", tracing.Config{MaxFileMB: -1}, "tracing.max_file_mb must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDefaultTracesFilePath(t *testing.T) {
	path := DefaultTracesFilePath()
	if path == "" {
		t.Skip("no home directory")
	}
	require.True(t, filepath.IsAbs(path))
	require.Equal(t, "traces.jsonl", filepath.Base(path))
	require.Contains(t, path, filepath.Join(".config", "arbor"))
}

func TestWriteDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	require.NoError(t, WriteDefaultConfig(configPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestDefaultConfigTemplate_LoadsAsDefaults(t *testing.T) {
	cfg := loadConfigFromYAML(t, DefaultConfigTemplate())
	defaults := Defaults()

	require.Equal(t, defaults.TickInterval, cfg.TickInterval)
	require.Equal(t, defaults.Projector, cfg.Projector)
	require.Equal(t, defaults.Markdown, cfg.Markdown)
	require.Equal(t, defaults.Flags, cfg.Flags)
	require.NoError(t, cfg.Validate())
}
