// Package renderable provides the composition core: render units, the
// resolver that normalises them, and Set, the ordered collection that
// flattens its members into one render output.
package renderable

import (
	"fmt"

	"github.com/zjrosen/arbor/internal/faults"
	"github.com/zjrosen/arbor/internal/vnode"
)

// Kind discriminates the forms a Unit can take.
type Kind int

const (
	// KindFixed is a fixed sequence of descriptions.
	KindFixed Kind = iota
	// KindFunc is a zero-argument producer function.
	KindFunc
	// KindRenderer is an object exposing Render.
	KindRenderer
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindFunc:
		return "func"
	case KindRenderer:
		return "renderer"
	default:
		return "unknown"
	}
}

// Renderer is anything exposing a render operation.
type Renderer interface {
	Render() []*vnode.VNode
}

// Unit is a render unit. Membership in a Set is by *Unit identity, so the
// same descriptions wrapped twice are two distinct units.
type Unit struct {
	kind  Kind
	nodes []*vnode.VNode
	fn    func() []*vnode.VNode
	obj   Renderer
}

// Fixed wraps a fixed sequence of descriptions.
func Fixed(nodes ...*vnode.VNode) *Unit {
	return &Unit{kind: KindFixed, nodes: nodes}
}

// Func wraps a producer function.
func Func(fn func() []*vnode.VNode) *Unit {
	return &Unit{kind: KindFunc, fn: fn}
}

// Object wraps a Renderer.
func Object(r Renderer) *Unit {
	return &Unit{kind: KindRenderer, obj: r}
}

// Kind returns the unit's form.
func (u *Unit) Kind() Kind {
	return u.kind
}

// Renderer returns the wrapped object for KindRenderer units, else nil.
func (u *Unit) Renderer() Renderer {
	if u == nil {
		return nil
	}
	return u.obj
}

func (u *Unit) String() string {
	if u == nil {
		return "unit(nil)"
	}
	return fmt.Sprintf("unit(%s)@%p", u.kind, u)
}

// From normalises a loosely typed value into a Unit by shape. Accepted
// shapes: *Unit, []*vnode.VNode, *vnode.VNode, string (text node),
// func() []*vnode.VNode, func() *vnode.VNode and Renderer.
func From(v any) (*Unit, error) {
	switch x := v.(type) {
	case *Unit:
		if x == nil {
			break
		}
		return x, nil
	case []*vnode.VNode:
		return Fixed(x...), nil
	case *vnode.VNode:
		if x == nil {
			break
		}
		return Fixed(x), nil
	case string:
		return Fixed(vnode.Text(x)), nil
	case func() []*vnode.VNode:
		if x == nil {
			break
		}
		return Func(x), nil
	case func() *vnode.VNode:
		if x == nil {
			break
		}
		return Func(func() []*vnode.VNode {
			if n := x(); n != nil {
				return []*vnode.VNode{n}
			}
			return nil
		}), nil
	case Renderer:
		return Object(x), nil
	}
	return nil, faults.Violation("renderable.from", fmt.Sprintf("%T is not a render unit", v))
}

// Resolve turns any unit into its concrete sequence of descriptions. A fixed
// unit returns its own backing slice unchanged.
func Resolve(u *Unit) []*vnode.VNode {
	if u == nil {
		return nil
	}
	switch u.kind {
	case KindFunc:
		return u.fn()
	case KindRenderer:
		return u.obj.Render()
	default:
		return u.nodes
	}
}
