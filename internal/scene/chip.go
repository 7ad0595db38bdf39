package scene

import (
	"context"
	"errors"
	"fmt"

	"github.com/zjrosen/arbor/internal/lifecycle"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/pubsub"
	"github.com/zjrosen/arbor/internal/scope"
)

// ChipOption configures a Chip.
type ChipOption func(*Chip)

// WithChanges makes the chip reload on the tick after a value arrives on
// changes. The channel is drained without blocking.
func WithChanges(changes <-chan struct{}) ChipOption {
	return func(c *Chip) {
		c.changes = changes
	}
}

// Chip hosts the panels of a scene file and rebuilds them on request.
// Reloads happen inside Tick, on the host's goroutine.
type Chip struct {
	lifecycle.Base
	path    string
	deps    Deps
	changes <-chan struct{}
	reload  bool

	host   *lifecycle.Group
	scene  *Scene
	cancel context.CancelFunc
	events *pubsub.Broker[string]
}

var _ lifecycle.Chip = (*Chip)(nil)

// NewChip creates a chip for the scene file at path.
func NewChip(path string, deps Deps, opts ...ChipOption) *Chip {
	c := &Chip{path: path, deps: deps, events: pubsub.NewBroker[string]()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scene returns the scene currently hosted, or nil while inactive.
func (c *Chip) Scene() *Scene {
	return c.scene
}

// Subscribe streams reload outcomes: ReloadedEvent with the scene path, or
// ReloadFailedEvent with the reason the current panels were kept.
func (c *Chip) Subscribe(ctx context.Context) <-chan pubsub.Event[string] {
	return c.events.Subscribe(ctx)
}

// RequestReload makes the next tick reload the scene file.
func (c *Chip) RequestReload() {
	c.reload = true
}

// Activate loads the scene and activates its panels.
func (c *Chip) Activate(ctx *scope.Context) error {
	op := "scene.activate"
	if err := c.BeginActivate(op, ctx); err != nil {
		return err
	}
	chips, s, cancel, err := c.build()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	host := lifecycle.NewGroup("scene", chips...)
	if err := host.Activate(ctx); err != nil {
		cancel()
		return fmt.Errorf("%s: %w", op, err)
	}
	c.host, c.scene, c.cancel = host, s, cancel
	c.MarkActive(ctx)
	log.Info(log.CatScene, "scene activated", "path", c.path, "title", s.Title, "panels", len(chips))
	return nil
}

// Tick reloads when a change is pending, then ticks every panel. A scene
// that fails to load or build is logged and the current panels are kept.
func (c *Chip) Tick(info lifecycle.TickInfo) error {
	if err := c.CheckActive("scene.tick"); err != nil {
		return err
	}
	if c.pending() {
		if err := c.Reload(); err != nil && !isBuildError(err) {
			return err
		}
	}
	return c.host.Tick(info)
}

// Terminate terminates every panel and closes their log subscriptions.
func (c *Chip) Terminate() error {
	if err := c.CheckActive("scene.terminate"); err != nil {
		return err
	}
	err := c.host.Terminate()
	c.cancel()
	c.host, c.scene, c.cancel = nil, nil, nil
	c.MarkInactive()
	log.Info(log.CatScene, "scene terminated", "path", c.path)
	return err
}

// Reload replaces the hosted panels with a fresh build of the scene file.
// Load and build failures leave the current panels in place and are
// returned as a *BuildError.
func (c *Chip) Reload() error {
	if err := c.CheckActive("scene.reload"); err != nil {
		return err
	}
	chips, s, cancel, err := c.build()
	if err != nil {
		log.Warn(log.CatScene, "scene reload failed, keeping current panels", "path", c.path, "error", err)
		berr := &BuildError{Path: c.path, Err: err}
		c.events.Publish(pubsub.ReloadFailedEvent, berr.Error())
		return berr
	}
	if err := c.host.Replace(chips...); err != nil {
		cancel()
		return fmt.Errorf("scene.reload: %w", err)
	}
	c.cancel()
	c.scene, c.cancel = s, cancel
	c.events.Publish(pubsub.ReloadedEvent, c.path)
	log.Info(log.CatScene, "scene reloaded", "path", c.path, "panels", len(chips))
	return nil
}

func (c *Chip) pending() bool {
	changed := false
	select {
	case <-c.changes:
		changed = true
	default:
	}
	requested := c.reload
	c.reload = false
	return changed || requested
}

func (c *Chip) build() ([]lifecycle.Chip, *Scene, context.CancelFunc, error) {
	s, err := Load(c.path)
	if err != nil {
		return nil, nil, nil, err
	}
	parent := c.deps.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	deps := c.deps
	deps.Context = ctx
	chips, err := Build(s, deps)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return chips, s, cancel, nil
}

// BuildError reports a scene file that could not be loaded or built.
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("scene %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func isBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}
