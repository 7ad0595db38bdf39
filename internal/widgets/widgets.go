// Package widgets provides the renderers a scene is built from.
//
// Every widget renders to a flat list of descriptions and keeps its own
// state. Widgets that animate implement lifecycle.Advancer and are advanced
// by their registration on every host tick.
package widgets

import (
	"fmt"
	"time"

	"github.com/zjrosen/arbor/internal/lifecycle"
	"github.com/zjrosen/arbor/internal/vnode"
)

// Text renders a fixed paragraph.
type Text struct {
	Content  string
	Selector string // defaults to "p"
}

// Render implements renderable.Renderer.
func (t *Text) Render() []*vnode.VNode {
	sel := t.Selector
	if sel == "" {
		sel = "p"
	}
	return []*vnode.VNode{vnode.H(sel, vnode.Properties{}, vnode.Text(t.Content))}
}

// Counter is a focusable button counting clicks and key presses. Its
// handlers are bound to the counter, so they receive it as this whatever
// engine delivered the event.
type Counter struct {
	Label string
	n     int
}

// NewCounter creates a counter starting at start.
func NewCounter(label string, start int) *Counter {
	return &Counter{Label: label, n: start}
}

// Value returns the current count.
func (c *Counter) Value() int {
	return c.n
}

// Render implements renderable.Renderer.
func (c *Counter) Render() []*vnode.VNode {
	return []*vnode.VNode{vnode.H("button.counter", vnode.Properties{
		Bind: c,
		On: map[string]vnode.Handler{
			"onclick":   counterClick,
			"onkeydown": counterKey,
		},
	}, vnode.Text(fmt.Sprintf("%s: %d", c.Label, c.n)))}
}

func counterClick(this any, _ *vnode.Event) {
	this.(*Counter).n++
}

func counterKey(this any, ev *vnode.Event) {
	c := this.(*Counter)
	switch ev.Key {
	case "+", "enter", " ", "space":
		c.n++
	case "-":
		c.n--
	case "0":
		c.n = 0
	}
}

// Clock shows the time elapsed across host ticks.
type Clock struct {
	Label   string
	elapsed time.Duration
	frame   uint64
}

var _ lifecycle.Advancer = (*Clock)(nil)

// Advance implements lifecycle.Advancer.
func (c *Clock) Advance(info lifecycle.TickInfo) {
	c.elapsed += info.Delta
	c.frame = info.Frame
}

// Elapsed returns the accumulated tick time.
func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

// Render implements renderable.Renderer.
func (c *Clock) Render() []*vnode.VNode {
	label := c.Label
	if label == "" {
		label = "uptime"
	}
	return []*vnode.VNode{vnode.H("p.clock", vnode.Properties{},
		vnode.H("span.muted", vnode.Properties{}, vnode.Text(label+" ")),
		vnode.Text(fmt.Sprintf("%s · frame %d", c.elapsed.Truncate(100*time.Millisecond), c.frame)),
	)}
}
