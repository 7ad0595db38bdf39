package engine

import (
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/vnode"
)

// HandleEvent runs the on<ev.Type> handler of node. The handler receives
// node's Bind property as its receiver when one was supplied, otherwise the
// native event target.
//
// In default mode a handled event schedules a render on p afterwards. In
// advanced mode it does not; redraws are left to the tick-driven path.
// HandleEvent reports whether a handler ran.
func HandleEvent(p Projector, opts Options, node *vnode.VNode, ev *vnode.Event) bool {
	h, ok := node.Handler(ev.Type)
	if !ok {
		return false
	}
	this := node.Properties.Bind
	if this == nil {
		this = ev.Target
	}
	h(this, ev)
	if !opts.Advanced && p != nil {
		p.ScheduleRender()
	}
	log.Debug(log.CatEngine, "event handled", "type", ev.Type, "selector", node.Selector, "advanced", opts.Advanced)
	return true
}

// Nearest returns the deepest node on path (from root towards the target)
// that handles eventType, emulating native bubbling. It returns nil when no
// node on the path handles the event.
func Nearest(root *vnode.VNode, path []int, eventType string) *vnode.VNode {
	for depth := len(path); depth >= 0; depth-- {
		n := root.At(path[:depth])
		if _, ok := n.Handler(eventType); ok {
			return n
		}
	}
	return nil
}
