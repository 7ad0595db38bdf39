// Package engine defines the render engine contract consumed by root
// projectors, and the event interception policy shared by engines.
//
// An engine owns the live document. Given a render function and a mount
// point it attaches the function's output under the mount point, calls the
// function again whenever a render has been scheduled, and stops calling it
// once it is detached.
package engine

import (
	"github.com/zjrosen/arbor/internal/vnode"
)

// RenderFunc produces the description tree for one mount.
type RenderFunc func() *vnode.VNode

// Handle identifies an attached render function.
type Handle uint64

// MountPoint is a live node in an engine's document that can host a mount.
type MountPoint interface {
	MountID() string
}

// Options configure a projector.
type Options struct {
	// Advanced routes handled events straight to their handler without
	// scheduling a render afterwards. Redraws then come only from ticks.
	Advanced bool
}

// Projector schedules and applies renders for the functions appended to it.
type Projector interface {
	// Append renders fn once and attaches the result under mp.
	Append(mp MountPoint, fn RenderFunc) (Handle, error)
	// Detach stops all future calls to the function behind h. A render
	// already scheduled must not call it.
	Detach(h Handle) error
	// ScheduleRender requests a render at the next paint opportunity.
	// Requests are coalesced by the engine.
	ScheduleRender()
}

// Engine creates projectors.
type Engine interface {
	NewProjector(opts Options) Projector
}
