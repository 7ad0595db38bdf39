// Package tui is a terminal render engine built on bubbletea and lipgloss.
//
// Projectors keep the last description produced by each attached render
// function. ScheduleRender only sets a dirty flag; the hosting Model calls
// Flush once per update, which is the terminal's paint opportunity.
package tui

import (
	"fmt"
	"slices"

	"github.com/zjrosen/arbor/internal/engine"
	"github.com/zjrosen/arbor/internal/faults"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/vnode"
)

// Region is a named area of the screen. Regions are laid out top to bottom
// in creation order.
type Region struct {
	name string
}

// MountID implements engine.MountPoint.
func (r *Region) MountID() string {
	return r.name
}

// Engine owns the screen regions and every projector painting into them.
type Engine struct {
	regions    []*Region
	projectors []*Projector
}

var _ engine.Engine = (*Engine)(nil)

// NewEngine creates an engine with no regions.
func NewEngine() *Engine {
	return &Engine{}
}

// Region returns the region called name, creating it at the bottom of the
// screen if it does not exist.
func (e *Engine) Region(name string) *Region {
	for _, r := range e.regions {
		if r.name == name {
			return r
		}
	}
	r := &Region{name: name}
	e.regions = append(e.regions, r)
	return r
}

// NewProjector implements engine.Engine.
func (e *Engine) NewProjector(opts engine.Options) engine.Projector {
	p := &Projector{engine: e, opts: opts}
	e.projectors = append(e.projectors, p)
	return p
}

// Flush paints every dirty projector and reports whether anything painted.
func (e *Engine) Flush() bool {
	painted := false
	for _, p := range e.projectors {
		if p.Flush() {
			painted = true
		}
	}
	return painted
}

// Dirty reports whether any projector has a pending render.
func (e *Engine) Dirty() bool {
	return slices.ContainsFunc(e.projectors, func(p *Projector) bool { return p.dirty })
}

// frame is one painted description and where it came from.
type frame struct {
	projector *Projector
	region    *Region
	node      *vnode.VNode
}

// frames returns the current descriptions in screen order.
func (e *Engine) frames() []frame {
	var out []frame
	for _, r := range e.regions {
		for _, p := range e.projectors {
			for _, m := range p.mounts {
				if m.region == r && m.last != nil {
					out = append(out, frame{projector: p, region: r, node: m.last})
				}
			}
		}
	}
	return out
}

type mount struct {
	handle engine.Handle
	fn     engine.RenderFunc
	region *Region
	last   *vnode.VNode
}

// Projector is the terminal engine's engine.Projector.
type Projector struct {
	engine  *Engine
	opts    engine.Options
	next    engine.Handle
	mounts  []*mount
	dirty   bool
	renders int
}

var _ engine.Projector = (*Projector)(nil)

// Options returns the projector's options.
func (p *Projector) Options() engine.Options {
	return p.opts
}

// Append renders fn once and keeps its output for the region mp.
func (p *Projector) Append(mp engine.MountPoint, fn engine.RenderFunc) (engine.Handle, error) {
	const op = "tui.append"
	region, ok := mp.(*Region)
	if !ok || region == nil {
		return 0, faults.Violation(op, fmt.Sprintf("mount point %T is not a tui region", mp))
	}
	if !slices.Contains(p.engine.regions, region) {
		return 0, faults.Violation(op, fmt.Sprintf("region %q belongs to another engine", region.name))
	}
	if fn == nil {
		return 0, faults.Violation(op, "nil render function")
	}
	p.next++
	m := &mount{handle: p.next, fn: fn, region: region}
	p.mounts = append(p.mounts, m)
	p.paint(m)
	log.Debug(log.CatEngine, "tui append", "region", region.name, "handle", m.handle)
	return m.handle, nil
}

// Detach drops the mount behind h.
func (p *Projector) Detach(h engine.Handle) error {
	i := slices.IndexFunc(p.mounts, func(m *mount) bool { return m.handle == h })
	if i < 0 {
		return faults.Missing("tui.detach", fmt.Sprintf("handle %d", h))
	}
	p.mounts = slices.Delete(p.mounts, i, i+1)
	log.Debug(log.CatEngine, "tui detach", "handle", h)
	return nil
}

// ScheduleRender marks the projector dirty.
func (p *Projector) ScheduleRender() {
	p.dirty = true
}

// Renders returns how many times attached render functions were called.
func (p *Projector) Renders() int {
	return p.renders
}

// Flush re-renders every mount when dirty and reports whether it painted.
func (p *Projector) Flush() bool {
	if !p.dirty {
		return false
	}
	p.dirty = false
	for _, m := range slices.Clone(p.mounts) {
		p.paint(m)
	}
	return true
}

func (p *Projector) paint(m *mount) {
	p.renders++
	m.last = m.fn()
}
