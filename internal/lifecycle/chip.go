// Package lifecycle provides the activation/tick/termination host that
// drives registrations and root projectors.
//
// A Chip is activated once per scope entry with the scope's shared context,
// ticked zero or more times, then terminated. Calling a hook out of that
// order is a contract violation.
package lifecycle

import (
	"time"

	"github.com/zjrosen/arbor/internal/faults"
	"github.com/zjrosen/arbor/internal/scope"
)

// State is a chip's position in its lifecycle.
type State int

const (
	// StateInactive is the initial and terminal state.
	StateInactive State = iota
	// StateActive lies between activation and termination.
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "inactive"
}

// TickInfo describes one scheduling tick.
type TickInfo struct {
	// Frame counts ticks since activation, starting at 1.
	Frame uint64
	// Delta is the time since the previous tick (zero on the first).
	Delta time.Duration
}

// Chip is a unit hosted by the lifecycle.
type Chip interface {
	Activate(ctx *scope.Context) error
	Tick(info TickInfo) error
	Terminate() error
}

// Advancer is implemented by renderers that animate with host ticks.
type Advancer interface {
	Advance(info TickInfo)
}

// Base tracks a chip's state and rejects out-of-order hooks. Embed it and
// call BeginActivate / MarkActive / CheckActive / MarkInactive from the
// chip's hooks.
type Base struct {
	state State
	ctx   *scope.Context
}

// State returns the current lifecycle state.
func (b *Base) State() State {
	return b.state
}

// Active reports whether the chip is between activation and termination.
func (b *Base) Active() bool {
	return b.state == StateActive
}

// Context returns the shared context the chip was activated with, or nil
// while inactive.
func (b *Base) Context() *scope.Context {
	return b.ctx
}

// BeginActivate validates an activation request.
func (b *Base) BeginActivate(op string, ctx *scope.Context) error {
	if b.state == StateActive {
		return faults.Violation(op, "already active")
	}
	if ctx == nil {
		return faults.Violation(op, "nil context")
	}
	return nil
}

// MarkActive records a successful activation.
func (b *Base) MarkActive(ctx *scope.Context) {
	b.state = StateActive
	b.ctx = ctx
}

// CheckActive fails unless the chip is active.
func (b *Base) CheckActive(op string) error {
	if b.state != StateActive {
		return faults.Violation(op, "not active")
	}
	return nil
}

// MarkInactive records termination and drops the context.
func (b *Base) MarkInactive() {
	b.state = StateInactive
	b.ctx = nil
}
