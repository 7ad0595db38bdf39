// Package dom is an in-memory live document engine. Projectors attach render
// functions under document elements and patch the live subtree in place on
// each paint opportunity (Flush).
package dom

import (
	"fmt"
	"maps"
	"strings"

	"github.com/zjrosen/arbor/internal/engine"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/vnode"
)

// Document is a live element tree plus the projectors painting into it.
type Document struct {
	body       *Element
	projectors []*Projector
	mutations  int
	seq        int
}

var _ engine.Engine = (*Document)(nil)

// NewDocument creates a document with an empty body.
func NewDocument() *Document {
	d := &Document{}
	d.body = d.CreateElement("body")
	return d
}

// Body returns the document's root element.
func (d *Document) Body() *Element {
	return d.body
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) *Element {
	d.seq++
	return &Element{doc: d, uid: d.seq, Tag: tag}
}

// Mount creates a new element under the body with the given id and returns
// it for use as a mount point.
func (d *Document) Mount(id string) *Element {
	el := d.CreateElement("div")
	el.ID = id
	d.body.appendChild(el)
	return el
}

// NewProjector implements engine.Engine.
func (d *Document) NewProjector(opts engine.Options) engine.Projector {
	p := &Projector{doc: d, opts: opts}
	d.projectors = append(d.projectors, p)
	return p
}

// Flush gives every projector with a pending render its paint opportunity.
// It returns the number of projectors that painted.
func (d *Document) Flush() int {
	painted := 0
	for _, p := range d.projectors {
		if p.Flush() {
			painted++
		}
	}
	return painted
}

// Mutations returns the number of live mutations applied since creation.
func (d *Document) Mutations() int {
	return d.mutations
}

// Dispatch fires a native event of type eventType at target. The event
// bubbles from target towards the body until an element rendered with a
// matching handler is found. It reports whether a handler ran.
func (d *Document) Dispatch(target *Element, eventType string) bool {
	return d.DispatchEvent(target, &vnode.Event{Type: eventType})
}

// DispatchEvent is Dispatch with a caller-built event. ev.Target is set to
// the original target element.
func (d *Document) DispatchEvent(target *Element, ev *vnode.Event) bool {
	ev.Target = target
	for cur := target; cur != nil; cur = cur.Parent {
		if cur.desc == nil || cur.owner == nil {
			continue
		}
		if _, ok := cur.desc.Handler(ev.Type); !ok {
			continue
		}
		return engine.HandleEvent(cur.owner, cur.owner.opts, cur.desc, ev)
	}
	log.Debug(log.CatEngine, "event not handled", "type", ev.Type, "target", target.MountID())
	return false
}

// Markup serializes the live body.
func (d *Document) Markup() string {
	return d.body.Markup()
}

func (d *Document) mutate(n int) {
	d.mutations += n
}

// Element is a live document node. Text nodes have an empty Tag.
type Element struct {
	doc *Document
	uid int

	Tag      string
	ID       string
	Classes  []string
	Attrs    map[string]string
	Styles   map[string]string
	Text     string
	Children []*Element
	Parent   *Element

	// desc is the description this element was last patched from; owner is
	// the projector that painted it.
	desc  *vnode.VNode
	owner *Projector
}

var _ engine.MountPoint = (*Element)(nil)

// MountID implements engine.MountPoint.
func (e *Element) MountID() string {
	if e.ID != "" {
		return "#" + e.ID
	}
	return fmt.Sprintf("%s@%d", e.Tag, e.uid)
}

// IsText reports whether e is a text node.
func (e *Element) IsText() bool {
	return e.Tag == ""
}

// Query returns the first descendant (or e itself) matching selector, which
// may be "tag", "#id", ".class" or "tag.class".
func (e *Element) Query(selector string) *Element {
	tag, id, classes := vnode.ParseSelector(selector)
	tagGiven := !strings.HasPrefix(selector, ".") && !strings.HasPrefix(selector, "#")
	var found *Element
	e.walk(func(el *Element) bool {
		if el.IsText() {
			return true
		}
		if tagGiven && el.Tag != tag {
			return true
		}
		if id != "" && el.ID != id {
			return true
		}
		for _, c := range classes {
			if !el.HasClass(c) {
				return true
			}
		}
		found = el
		return false
	})
	return found
}

// HasClass reports whether e carries class c.
func (e *Element) HasClass(c string) bool {
	for _, have := range e.Classes {
		if have == c {
			return true
		}
	}
	return false
}

// TextContent concatenates the text of e and its descendants.
func (e *Element) TextContent() string {
	var sb strings.Builder
	e.walk(func(el *Element) bool {
		if el.IsText() {
			sb.WriteString(el.Text)
		}
		return true
	})
	return sb.String()
}

// Markup serializes e and its descendants.
func (e *Element) Markup() string {
	return e.snapshot().String()
}

func (e *Element) walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.Children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// snapshot converts the live subtree back into a description for
// serialization.
func (e *Element) snapshot() *vnode.VNode {
	if e.IsText() {
		return vnode.Text(e.Text)
	}
	sel := e.Tag
	if e.ID != "" {
		sel += "#" + e.ID
	}
	n := vnode.H(sel, vnode.Properties{
		Classes: classSet(e.Classes),
		Attrs:   maps.Clone(e.Attrs),
		Styles:  maps.Clone(e.Styles),
	})
	for _, c := range e.Children {
		n.Children = append(n.Children, c.snapshot())
	}
	return n
}

func (e *Element) appendChild(c *Element) {
	c.Parent = e
	e.Children = append(e.Children, c)
}

func (e *Element) removeChild(c *Element) {
	for i, have := range e.Children {
		if have == c {
			e.Children = append(e.Children[:i], e.Children[i+1:]...)
			c.Parent = nil
			return
		}
	}
}

func classSet(classes []string) map[string]bool {
	if len(classes) == 0 {
		return nil
	}
	out := make(map[string]bool, len(classes))
	for _, c := range classes {
		out[c] = true
	}
	return out
}
