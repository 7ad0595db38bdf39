// Package config provides configuration types and defaults for arbor.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/tracing"
)

// Config holds all configuration options for arbor.
type Config struct {
	Scene        string          `mapstructure:"scene"`
	TickInterval time.Duration   `mapstructure:"tick_interval"`
	Projector    ProjectorConfig `mapstructure:"projector"`
	Markdown     MarkdownConfig  `mapstructure:"markdown"`
	Theme        ThemeConfig     `mapstructure:"theme"`
	Tracing      tracing.Config  `mapstructure:"tracing"`
	Metrics      MetricsConfig   `mapstructure:"metrics"`
	Log          LogConfig       `mapstructure:"log"`
	Flags        map[string]bool `mapstructure:"flags"`
}

// ProjectorConfig configures the root projector that hosts the scene.
type ProjectorConfig struct {
	Selector   string `mapstructure:"selector"`    // root element selector, default "div"
	ContextKey string `mapstructure:"context_key"` // scope key holding the set
	Advanced   bool   `mapstructure:"advanced"`    // handlers never schedule renders
}

// MarkdownConfig configures the markdown widget.
type MarkdownConfig struct {
	Style    string        `mapstructure:"style"` // "dark" (default), "light", "notty"
	Width    int           `mapstructure:"width"` // word wrap, 0 disables
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	NoCache  bool          `mapstructure:"no_cache"` // render every pass through glamour
}

// MetricsConfig configures the prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the server
}

// LogConfig configures the debug log file.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"` // debug (default), info, warn, error
}

// ThemeConfig holds terminal theme customization.
type ThemeConfig struct {
	// Colors overrides individual color tokens.
	// Supports both nested YAML structure and dot notation:
	//   colors:
	//     text:
	//       primary: "#FF0000"
	//     "border.focus": "#00FF00"
	Colors map[string]any `mapstructure:"colors"`
}

// FlattenedColors returns the Colors map flattened to dot-notation keys.
func (t ThemeConfig) FlattenedColors() map[string]string {
	result := make(map[string]string)
	flattenColors("", t.Colors, result)
	return result
}

// flattenColors recursively flattens a nested map into dot-notation keys.
func flattenColors(prefix string, m map[string]any, result map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			result[key] = val
		case map[string]any:
			flattenColors(key, val, result)
		case map[any]any:
			// YAML sometimes produces map[any]any instead of map[string]any
			converted := make(map[string]any)
			for mk, mv := range val {
				if strKey, ok := mk.(string); ok {
					converted[strKey] = mv
				}
			}
			flattenColors(key, converted, result)
		}
	}
}

// DefaultTracesFilePath returns ~/.config/arbor/traces/traces.jsonl, or an
// empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "arbor", "traces", "traces.jsonl")
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if c.TickInterval < 0 {
		return fmt.Errorf("tick_interval must not be negative, got %v", c.TickInterval)
	}
	if err := ValidateMarkdown(c.Markdown); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateMarkdown checks markdown widget settings.
func ValidateMarkdown(md MarkdownConfig) error {
	switch md.Style {
	case "", "dark", "light", "notty":
	default:
		return fmt.Errorf("markdown.style must be \"dark\", \"light\", or \"notty\", got %q", md.Style)
	}
	if md.Width < 0 {
		return fmt.Errorf("markdown.width must not be negative, got %d", md.Width)
	}
	if md.CacheTTL < 0 {
		return fmt.Errorf("markdown.cache_ttl must not be negative, got %v", md.CacheTTL)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(cfg tracing.Config) error {
	if cfg.SampleRate < 0.0 || cfg.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", cfg.SampleRate)
	}

	if cfg.MaxFileMB < 0 {
		return fmt.Errorf("tracing.max_file_mb must not be negative, got %d", cfg.MaxFileMB)
	}

	if cfg.Exporter != "" {
		switch cfg.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", cfg.Exporter)
		}
	}

	// Path requirements only matter once tracing is on
	if cfg.Enabled {
		if cfg.Exporter == "file" && cfg.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if cfg.Exporter == "otlp" && cfg.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = "" // derived from the config dir at runtime
	return Config{
		Scene:        "",
		TickInterval: 100 * time.Millisecond,
		Projector: ProjectorConfig{
			Selector:   "div",
			ContextKey: "renderableSet",
		},
		Markdown: MarkdownConfig{
			Style:    "dark",
			Width:    80,
			CacheTTL: 5 * time.Minute,
		},
		Tracing: tc,
		Flags: map[string]bool{
			"scene-watch": true,
		},
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Arbor Configuration

# Scene file describing the panels to mount (default: .arbor/scene.yaml)
# scene: ./scene.yaml

# How often the host ticks the lifecycle tree
tick_interval: 100ms

# Root projector settings
projector:
  selector: div              # root element selector, e.g. "main.app"
  context_key: renderableSet # scope key the renderable set is published under
  advanced: false            # true: event handlers never schedule a render

# Markdown panels
markdown:
  style: dark      # dark (default), light, or notty
  width: 80        # word wrap column, 0 disables wrapping
  cache_ttl: 5m    # how long rendered markdown is reused
  # no_cache: false # true renders every pass (debugging styles)

# Theme configuration
# theme:
#   colors:
#     text.primary: "#FFFFFF"
#     border.focus: "#54A0FF"

# Prometheus metrics endpoint (empty disables)
# metrics:
#   addr: localhost:9464

# Debug log file (written when --debug is set)
# log:
#   path: ./debug.log
#   level: debug   # debug, info, warn, error

# Distributed tracing of render passes
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: ~/.config/arbor/traces/traces.jsonl
#   max_file_mb: 50                # rotate to traces.jsonl.1 at this size
#   otlp_endpoint: localhost:4317  # collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # 0.0-1.0 (default: 1.0)

# Feature flags
flags:
  scene-watch: true     # reload the scene when the file changes
  # advanced-events: false
  # log-pane: false
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
