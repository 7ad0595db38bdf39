package lifecycle

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zjrosen/arbor/internal/faults"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/renderable"
	"github.com/zjrosen/arbor/internal/scope"
)

// Group is a composite chip. Children are activated in order inside a
// child scope, ticked in order and terminated in reverse.
type Group struct {
	Base
	name     string
	children []Chip
	provides []scope.Key
}

// NewGroup creates a group hosting children.
func NewGroup(name string, children ...Chip) *Group {
	return &Group{name: name, children: children}
}

// WithScope makes the group provide a fresh set under each key to its
// children for the duration of each activation.
func (g *Group) WithScope(keys ...scope.Key) *Group {
	g.provides = append(g.provides, keys...)
	return g
}

// Name returns the group's name.
func (g *Group) Name() string {
	return g.name
}

// Children returns the hosted chips in activation order.
func (g *Group) Children() []Chip {
	return slices.Clone(g.children)
}

// Activate activates every child. If a child fails, the children already
// activated are terminated in reverse and the failure is returned.
func (g *Group) Activate(ctx *scope.Context) error {
	op := "group.activate"
	if err := g.BeginActivate(op, ctx); err != nil {
		return err
	}
	child := ctx.Child()
	for _, k := range g.provides {
		child.Provide(k, renderable.NewSet())
	}
	for i, c := range g.children {
		if err := c.Activate(child); err != nil {
			rollback := terminateAll(g.children[:i])
			return errors.Join(fmt.Errorf("%s: activating child %d: %w", g.name, i, err), rollback)
		}
	}
	g.MarkActive(child)
	log.Debug(log.CatLifecycle, "group activated", "group", g.name, "children", len(g.children))
	return nil
}

// Tick ticks every child in order, stopping at the first failure.
func (g *Group) Tick(info TickInfo) error {
	if err := g.CheckActive("group.tick"); err != nil {
		return err
	}
	for i, c := range slices.Clone(g.children) {
		if err := c.Tick(info); err != nil {
			return fmt.Errorf("%s: ticking child %d: %w", g.name, i, err)
		}
	}
	return nil
}

// Terminate terminates every child in reverse order. All children are
// terminated even if one fails; the failures are joined.
func (g *Group) Terminate() error {
	if err := g.CheckActive("group.terminate"); err != nil {
		return err
	}
	err := terminateAll(g.children)
	g.MarkInactive()
	log.Debug(log.CatLifecycle, "group terminated", "group", g.name)
	if err != nil {
		return fmt.Errorf("%s: %w", g.name, err)
	}
	return nil
}

// Attach appends c, activating it immediately when the group is active.
func (g *Group) Attach(c Chip) error {
	if g.Active() {
		if err := c.Activate(g.Context()); err != nil {
			return fmt.Errorf("%s: attaching: %w", g.name, err)
		}
	}
	g.children = append(g.children, c)
	return nil
}

// Detach removes c, terminating it first when the group is active.
func (g *Group) Detach(c Chip) error {
	i := slices.Index(g.children, c)
	if i == -1 {
		return faults.Missing("group.detach", fmt.Sprintf("%T is not a child of %s", c, g.name))
	}
	if g.Active() {
		if err := c.Terminate(); err != nil {
			return fmt.Errorf("%s: detaching: %w", g.name, err)
		}
	}
	g.children = slices.Delete(g.children, i, i+1)
	return nil
}

// Replace detaches every current child (in reverse) and attaches next.
func (g *Group) Replace(next ...Chip) error {
	for i := len(g.children) - 1; i >= 0; i-- {
		if err := g.Detach(g.children[i]); err != nil {
			return err
		}
	}
	for _, c := range next {
		if err := g.Attach(c); err != nil {
			return err
		}
	}
	return nil
}

func terminateAll(chips []Chip) error {
	var errs []error
	for i := len(chips) - 1; i >= 0; i-- {
		if err := chips[i].Terminate(); err != nil {
			errs = append(errs, fmt.Errorf("terminating child %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
