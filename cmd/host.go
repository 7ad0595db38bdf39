package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/arbor/internal/config"
	"github.com/zjrosen/arbor/internal/engine"
	"github.com/zjrosen/arbor/internal/flags"
	"github.com/zjrosen/arbor/internal/lifecycle"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/metrics"
	"github.com/zjrosen/arbor/internal/projector"
	"github.com/zjrosen/arbor/internal/scene"
	"github.com/zjrosen/arbor/internal/scope"
	"github.com/zjrosen/arbor/internal/tracing"
	"github.com/zjrosen/arbor/internal/watcher"
	"github.com/zjrosen/arbor/internal/widgets"
)

type hostConfig struct {
	cfg     config.Config
	flags   *flags.Registry
	scene   string
	watch   bool
	metrics *metrics.Collector
}

// host is the assembled lifecycle tree: the scene chip and the root
// projector, hosted in a group that provides the shared set.
type host struct {
	root   *lifecycle.Group
	scene  *scene.Chip
	rootP  *projector.Root
	scope  *scope.Context
	closer []func() error
}

// newHost wires a scene and a root projector for eng. The scene chip comes
// first so the root's first paint already includes its panels.
func newHost(ctx context.Context, hc hostConfig, eng engine.Engine, mount engine.MountPoint) (*host, error) {
	h := &host{scope: scope.New()}

	provider, err := tracing.NewProvider(hc.cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	h.closer = append(h.closer, func() error {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return provider.Shutdown(sctx)
	})

	md, err := widgets.NewMarkdownRenderer(hc.cfg.Markdown.Style, hc.cfg.Markdown.Width, hc.cfg.Markdown.CacheTTL,
		widgets.WithoutCache(hc.cfg.Markdown.NoCache),
	)
	if err != nil {
		_ = h.close()
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}

	key := scope.Key(hc.cfg.Projector.ContextKey)
	if key == "" {
		key = scope.DefaultKey
	}

	var opts []scene.ChipOption
	if hc.watch {
		w, err := watcher.New(watcher.DefaultConfig(hc.scene))
		if err != nil {
			_ = h.close()
			return nil, err
		}
		changes, err := w.Start()
		if err != nil {
			_ = w.Stop()
			_ = h.close()
			return nil, err
		}
		h.closer = append(h.closer, w.Stop)
		opts = append(opts, scene.WithChanges(changes))
	}

	h.scene = scene.NewChip(hc.scene, scene.Deps{Context: ctx, Key: key, Markdown: md}, opts...)
	h.rootP = projector.NewRoot(eng, mount,
		projector.WithSelector(hc.cfg.Projector.Selector),
		projector.WithContextKey(key),
		projector.WithAdvancedEvents(hc.flags.Enabled(flags.FlagAdvancedEvents)),
		projector.WithTracer(provider.Tracer()),
		projector.WithMetrics(hc.metrics),
	)
	h.root = lifecycle.NewGroup("arbor", h.scene, h.rootP).WithScope(key)

	log.Debug(log.CatConfig, "host assembled", "scene", hc.scene, "key", key, "watch", hc.watch,
		"advanced", hc.flags.Enabled(flags.FlagAdvancedEvents), "tracing", provider.Enabled())
	return h, nil
}

// closeHost closes h and joins any failure into *err.
func closeHost(h *host, err *error) {
	if cerr := h.close(); cerr != nil {
		log.ErrorErr(log.CatConfig, "closing host failed", cerr)
		*err = errors.Join(*err, fmt.Errorf("closing host: %w", cerr))
	}
}

// close releases watchers and flushes traces, newest first.
func (h *host) close() error {
	var errs []error
	for i := len(h.closer) - 1; i >= 0; i-- {
		errs = append(errs, h.closer[i]())
	}
	h.closer = nil
	return errors.Join(errs...)
}
