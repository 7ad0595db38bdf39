// Package cmd implements the arbor command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/zjrosen/arbor/internal/config"
	"github.com/zjrosen/arbor/internal/engine/tui"
	"github.com/zjrosen/arbor/internal/flags"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/metrics"
	"github.com/zjrosen/arbor/internal/paths"
	"github.com/zjrosen/arbor/internal/scene"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

// defaultConfigPath is created with commented defaults when no config exists.
const defaultConfigPath = ".arbor/config.yaml"

var version = "dev"

// options carries the state shared by the root command and its children.
type options struct {
	cfgFile string
	debug   bool
	v       *viper.Viper
	cfg     config.Config
}

// NewRootCmd builds the arbor command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "arbor",
		Short: "Compose renderable units into one live view",
		Long: `arbor mounts a scene of panels on a root projector and drives it from a
tick loop. Each panel is a registration contributing a renderable unit to a
shared set; the root projector wraps the set in one element and repaints it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.runTUI(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.cfgFile, "config", "c", "", "config file (default: .arbor/config.yaml or ~/.config/arbor/config.yaml)")
	pf.BoolVarP(&o.debug, "debug", "d", false, "write a debug log (also ARBOR_DEBUG)")
	pf.StringP("scene", "s", "", "scene file (default: .arbor/scene.yaml)")
	pf.Bool("advanced", false, "advanced event mode: handlers never schedule renders")
	pf.Duration("tick", 0, "tick interval (default 100ms)")
	root.Flags().String("metrics-addr", "", "serve prometheus metrics on this address")

	root.AddCommand(newRenderCmd(o), newInitCmd(o), newFlagsCmd(o))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
}

// load reads configuration: defaults, then the config file, then ARBOR_*
// environment variables, then flags.
func (o *options) load(cmd *cobra.Command) error {
	// "::" keeps dotted keys like "text.primary" in theme.colors intact.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetEnvPrefix("ARBOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("::", "_", "-", "_"))
	v.AutomaticEnv()

	defaults := config.Defaults()
	v.SetDefault("tick_interval", defaults.TickInterval)
	v.SetDefault("projector::selector", defaults.Projector.Selector)
	v.SetDefault("projector::context_key", defaults.Projector.ContextKey)
	v.SetDefault("projector::advanced", defaults.Projector.Advanced)
	v.SetDefault("markdown::style", defaults.Markdown.Style)
	v.SetDefault("markdown::width", defaults.Markdown.Width)
	v.SetDefault("markdown::cache_ttl", defaults.Markdown.CacheTTL)
	v.SetDefault("markdown::no_cache", defaults.Markdown.NoCache)
	v.SetDefault("tracing::exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing::otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing::max_file_mb", defaults.Tracing.MaxFileMB)
	v.SetDefault("tracing::sample_rate", defaults.Tracing.SampleRate)
	v.SetDefault("tracing::service_name", defaults.Tracing.ServiceName)
	for name, enabled := range defaults.Flags {
		v.SetDefault("flags::"+name, enabled)
	}

	if err := bindFlags(v, cmd); err != nil {
		return err
	}

	if err := readConfigFile(v, o.cfgFile); err != nil {
		return err
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Exporter == "file" && cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = config.DefaultTracesFilePath()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	o.v, o.cfg = v, cfg
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	bindings := map[string]string{
		"scene":               "scene",
		"tick_interval":       "tick",
		"projector::advanced": "advanced",
		"metrics::addr":       "metrics-addr",
	}
	for key, name := range bindings {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// readConfigFile loads the config file. Lookup order:
//  1. --config
//  2. .arbor/config.yaml (current directory)
//  3. ~/.config/arbor/config.yaml (user config)
//
// When none exists a commented default is written to .arbor/config.yaml.
func readConfigFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		return nil
	}

	if _, err := os.Stat(defaultConfigPath); err == nil {
		v.SetConfigFile(defaultConfigPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "arbor"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &notFound):
		if writeErr := config.WriteDefaultConfig(defaultConfigPath); writeErr == nil {
			v.SetConfigFile(defaultConfigPath)
			_ = v.ReadInConfig()
		}
		// If write fails, just continue with defaults (no config file)
		return nil
	default:
		return fmt.Errorf("reading config: %w", err)
	}
}

// configPath is the file settings are saved back to.
func (o *options) configPath() string {
	if used := o.v.ConfigFileUsed(); used != "" {
		return used
	}
	return defaultConfigPath
}

// initLogging opens the debug log when --debug or ARBOR_DEBUG is set.
func (o *options) initLogging(name string) (func(), error) {
	if !o.debug && os.Getenv("ARBOR_DEBUG") == "" {
		return func() {}, nil
	}
	logPath := o.cfg.Log.Path
	if logPath == "" {
		logPath = os.Getenv("ARBOR_LOG")
	}
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, name)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	level, _ := log.ParseLevel(o.cfg.Log.Level) // checked by Validate
	log.SetMinLevel(level)
	log.Info(log.CatConfig, "arbor starting", "version", version, "config", o.v.ConfigFileUsed(), "logPath", logPath)
	return cleanup, nil
}

func (o *options) flagRegistry() *flags.Registry {
	fl := flags.New(o.cfg.Flags)
	if o.cfg.Projector.Advanced {
		fl = fl.With(flags.FlagAdvancedEvents, true)
	}
	return fl
}

func (o *options) runTUI(cmd *cobra.Command) (err error) {
	cleanup, err := o.initLogging("arbor")
	if err != nil {
		return err
	}
	defer cleanup()

	if !isTerminal(cmd.InOrStdin()) {
		return errors.New("arbor needs an interactive terminal (use \"arbor render\" to print frames)")
	}

	scenePath, err := ensureScene(o, cmd)
	if err != nil {
		return err
	}

	theme, err := tui.NewTheme(o.cfg.Theme.FlattenedColors())
	if err != nil {
		return fmt.Errorf("invalid theme: %w", err)
	}

	collector := metrics.New()
	if addr := o.cfg.Metrics.Addr; addr != "" {
		stop := serveMetrics(addr, collector)
		defer stop()
	}

	fl := o.flagRegistry()
	eng := tui.NewEngine()
	h, err := newHost(cmd.Context(), hostConfig{
		cfg:     o.cfg,
		flags:   fl,
		scene:   scenePath,
		watch:   fl.Enabled(flags.FlagSceneWatch),
		metrics: collector,
	}, eng, eng.Region("main"))
	if err != nil {
		return err
	}
	defer closeHost(h, &err)

	model := tui.NewModel(eng, h.root, h.scope,
		tui.WithInterval(o.cfg.TickInterval),
		tui.WithTheme(theme),
		tui.WithLogPane(fl.Enabled(flags.FlagLogPane)),
		tui.WithReload(h.scene.RequestReload),
		tui.WithMetrics(collector),
	)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return model.Err()
}

// ensureScene resolves the scene path. The default scene is created on
// first run and remembered in the config file.
func ensureScene(o *options, cmd *cobra.Command) (string, error) {
	path := paths.ResolveScene(o.cfg.Scene)
	if o.cfg.Scene != "" {
		return path, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := scene.WriteDefault(path); err != nil {
			return "", err
		}
		if err := config.SaveScenePath(o.configPath(), path); err != nil {
			log.Warn(log.CatConfig, "could not record scene in config", "error", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "created %s\n", path)
	}
	return path, nil
}

// isTerminal reports whether r is attached to a terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// metricsRouter exposes collector at /metrics with a liveness probe.
func metricsRouter(collector *metrics.Collector) http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", collector.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

// serveMetrics serves collector on addr until the returned stop is called.
func serveMetrics(addr string, collector *metrics.Collector) func() {
	srv := &http.Server{Addr: addr, Handler: metricsRouter(collector), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorErr(log.CatMetrics, "metrics server failed", err, "addr", addr)
		}
	}()
	log.Info(log.CatMetrics, "serving metrics", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
