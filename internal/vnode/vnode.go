// Package vnode defines render descriptions: the immutable, engine-neutral
// description of one document node produced by a render pass.
//
// Descriptions are built with H and Text and consumed by an engine, which
// reconciles them against its live document:
//
//	vnode.H("div.panel", vnode.Properties{}, vnode.Text("hello"))
//
// Event handlers live in Properties.On keyed by "on<eventType>".
package vnode

import (
	"maps"
	"strings"
)

// Handler handles a native event routed to a description. this is the
// Properties.Bind value when set, otherwise the native event target.
type Handler func(this any, ev *Event)

// Event is a native event delivered by an engine.
type Event struct {
	// Type is the bare event type ("click", "keydown").
	Type string
	// Key is the key pressed for keyboard events.
	Key string
	// Target is the engine's native target (a live element, a screen zone).
	Target any
	// Data carries engine-specific payload.
	Data any
}

// Properties are the attributes and handlers attached to an element.
type Properties struct {
	// Key identifies a node among its siblings during reconciliation. It must
	// be comparable; siblings with other keys are reconciled by position.
	Key any
	// Bind is the receiver handed to handlers instead of the event target.
	Bind any

	Classes map[string]bool
	Styles  map[string]string
	Attrs   map[string]string
	On      map[string]Handler
}

// VNode describes one document node. A node with an empty Selector is a
// text node carrying Text.
type VNode struct {
	Selector   string
	Properties Properties
	Children   []*VNode
	Text       string
}

// H builds an element description. Nil children are dropped.
func H(selector string, props Properties, children ...*VNode) *VNode {
	n := &VNode{Selector: selector, Properties: props}
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Text builds a text description.
func Text(s string) *VNode {
	return &VNode{Text: s}
}

// IsText reports whether n is a text node.
func (n *VNode) IsText() bool {
	return n.Selector == ""
}

// Tag returns the element tag named by the selector.
func (n *VNode) Tag() string {
	tag, _, _ := ParseSelector(n.Selector)
	return tag
}

// Handler returns the on<eventType> handler of n, if any.
func (n *VNode) Handler(eventType string) (Handler, bool) {
	if n == nil || n.Properties.On == nil {
		return nil, false
	}
	h, ok := n.Properties.On["on"+eventType]
	if !ok || h == nil {
		return nil, false
	}
	return h, true
}

// HasHandlers reports whether n carries any event handler.
func (n *VNode) HasHandlers() bool {
	return n != nil && len(n.Properties.On) > 0
}

// At returns the descendant addressed by a child-index path, or nil.
func (n *VNode) At(path []int) *VNode {
	cur := n
	for _, i := range path {
		if cur == nil || i < 0 || i >= len(cur.Children) {
			return nil
		}
		cur = cur.Children[i]
	}
	return cur
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *VNode) Walk(fn func(path []int, node *VNode) bool) {
	walk(n, nil, fn)
}

func walk(n *VNode, path []int, fn func([]int, *VNode) bool) {
	if n == nil {
		return
	}
	if !fn(path, n) {
		return
	}
	for i, c := range n.Children {
		walk(c, append(path[:len(path):len(path)], i), fn)
	}
}

// ParseSelector splits "tag.class#id" into its parts. The tag defaults to
// "div" when the selector starts with a class or id.
func ParseSelector(selector string) (tag, id string, classes []string) {
	if selector == "" {
		return "", "", nil
	}
	end := strings.IndexAny(selector, ".#")
	if end == -1 {
		return selector, "", nil
	}
	tag = selector[:end]
	if tag == "" {
		tag = "div"
	}
	rest := selector[end:]
	for rest != "" {
		marker := rest[0]
		rest = rest[1:]
		next := strings.IndexAny(rest, ".#")
		part := rest
		if next != -1 {
			part = rest[:next]
			rest = rest[next:]
		} else {
			rest = ""
		}
		if part == "" {
			continue
		}
		if marker == '#' {
			id = part
		} else {
			classes = append(classes, part)
		}
	}
	return tag, id, classes
}

// Merge returns p overlaid with other. Map entries from other win; Key and
// Bind are taken from other when set.
func (p Properties) Merge(other Properties) Properties {
	out := Properties{
		Key:     p.Key,
		Bind:    p.Bind,
		Classes: mergeMap(p.Classes, other.Classes),
		Styles:  mergeMap(p.Styles, other.Styles),
		Attrs:   mergeMap(p.Attrs, other.Attrs),
		On:      mergeMap(p.On, other.On),
	}
	if other.Key != nil {
		out.Key = other.Key
	}
	if other.Bind != nil {
		out.Bind = other.Bind
	}
	return out
}

func mergeMap[V any](a, b map[string]V) map[string]V {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]V, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}
