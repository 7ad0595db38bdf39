package widgets

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/zjrosen/arbor/internal/lifecycle"
	"github.com/zjrosen/arbor/internal/vnode"
)

// spinners maps scene style names to bubbles spinner frame sets.
var spinners = map[string]spinner.Spinner{
	"line":      spinner.Line,
	"dot":       spinner.Dot,
	"minidot":   spinner.MiniDot,
	"jump":      spinner.Jump,
	"pulse":     spinner.Pulse,
	"points":    spinner.Points,
	"globe":     spinner.Globe,
	"moon":      spinner.Moon,
	"meter":     spinner.Meter,
	"ellipsis":  spinner.Ellipsis,
	"hamburger": spinner.Hamburger,
}

// SpinnerStyles reports whether name is a known spinner style.
func SpinnerStyles(name string) bool {
	_, ok := spinners[name]
	return ok
}

// Spinner shows one animation frame per host tick.
type Spinner struct {
	Label  string
	frames []string
	index  int
}

var _ lifecycle.Advancer = (*Spinner)(nil)

// NewSpinner creates a spinner using the named style; unknown and empty
// names fall back to "dot".
func NewSpinner(style, label string) *Spinner {
	s, ok := spinners[style]
	if !ok {
		s = spinner.Dot
	}
	return &Spinner{Label: label, frames: s.Frames}
}

// Advance implements lifecycle.Advancer.
func (s *Spinner) Advance(lifecycle.TickInfo) {
	s.index = (s.index + 1) % len(s.frames)
}

// Frame returns the frame currently shown.
func (s *Spinner) Frame() string {
	return s.frames[s.index]
}

// Render implements renderable.Renderer.
func (s *Spinner) Render() []*vnode.VNode {
	children := []*vnode.VNode{vnode.H("span.spinner", vnode.Properties{}, vnode.Text(s.Frame()))}
	if s.Label != "" {
		children = append(children, vnode.Text(fmt.Sprintf(" %s", s.Label)))
	}
	return []*vnode.VNode{vnode.H("p", vnode.Properties{}, children...)}
}
