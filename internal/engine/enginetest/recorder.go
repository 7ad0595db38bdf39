// Package enginetest provides a recording engine for testing code that
// drives render engines without a live document.
package enginetest

import (
	"fmt"

	"github.com/zjrosen/arbor/internal/engine"
	"github.com/zjrosen/arbor/internal/faults"
)

// Call is one recorded projector operation.
type Call struct {
	Op        string // "append", "detach", "schedule"
	Projector int
	Handle    engine.Handle
	MountID   string
}

// Engine records every projector it creates and every call made on them.
type Engine struct {
	Calls      []Call
	Projectors []*Projector
}

// New creates a recording engine.
func New() *Engine {
	return &Engine{}
}

// NewProjector implements engine.Engine.
func (e *Engine) NewProjector(opts engine.Options) engine.Projector {
	p := &Projector{
		engine: e,
		id:     len(e.Projectors),
		opts:   opts,
		mounts: make(map[engine.Handle]engine.RenderFunc),
	}
	e.Projectors = append(e.Projectors, p)
	return p
}

// Ops returns the recorded operation names in order.
func (e *Engine) Ops() []string {
	out := make([]string, len(e.Calls))
	for i, c := range e.Calls {
		out[i] = c.Op
	}
	return out
}

// Projector is a recording engine.Projector. Renders only happen when the
// test calls Flush or RenderAll.
type Projector struct {
	engine    *Engine
	id        int
	opts      engine.Options
	next      engine.Handle
	mounts    map[engine.Handle]engine.RenderFunc
	order     []engine.Handle
	scheduled int
	pending   bool
}

// Options returns the options the projector was created with.
func (p *Projector) Options() engine.Options {
	return p.opts
}

// Append implements engine.Projector. It renders fn once, as a real engine
// would when attaching.
func (p *Projector) Append(mp engine.MountPoint, fn engine.RenderFunc) (engine.Handle, error) {
	if mp == nil || fn == nil {
		return 0, faults.Violation("enginetest.append", "nil mount point or render function")
	}
	p.next++
	h := p.next
	p.mounts[h] = fn
	p.order = append(p.order, h)
	p.engine.Calls = append(p.engine.Calls, Call{Op: "append", Projector: p.id, Handle: h, MountID: mp.MountID()})
	fn()
	return h, nil
}

// Detach implements engine.Projector.
func (p *Projector) Detach(h engine.Handle) error {
	if _, ok := p.mounts[h]; !ok {
		return faults.Missing("enginetest.detach", fmt.Sprintf("handle %d", h))
	}
	delete(p.mounts, h)
	for i, o := range p.order {
		if o == h {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	p.engine.Calls = append(p.engine.Calls, Call{Op: "detach", Projector: p.id, Handle: h})
	return nil
}

// ScheduleRender implements engine.Projector.
func (p *Projector) ScheduleRender() {
	p.scheduled++
	p.pending = true
	p.engine.Calls = append(p.engine.Calls, Call{Op: "schedule", Projector: p.id})
}

// Scheduled returns how many renders were requested.
func (p *Projector) Scheduled() int {
	return p.scheduled
}

// Attached returns how many render functions are attached.
func (p *Projector) Attached() int {
	return len(p.mounts)
}

// Flush renders every attached function if a render is pending and reports
// whether it rendered.
func (p *Projector) Flush() bool {
	if !p.pending {
		return false
	}
	p.pending = false
	p.RenderAll()
	return true
}

// RenderAll calls every attached function in append order.
func (p *Projector) RenderAll() {
	for _, h := range p.order {
		p.mounts[h]()
	}
}

// MountPoint is a named engine.MountPoint for tests.
type MountPoint string

// MountID implements engine.MountPoint.
func (m MountPoint) MountID() string {
	return string(m)
}
