package dom

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/zjrosen/arbor/internal/engine"
	"github.com/zjrosen/arbor/internal/faults"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/vnode"
)

type mount struct {
	handle engine.Handle
	fn     engine.RenderFunc
	parent *Element
	live   *Element
}

// Projector paints render functions into a Document.
type Projector struct {
	doc     *Document
	opts    engine.Options
	next    engine.Handle
	mounts  []*mount
	pending bool
	renders int
}

var _ engine.Projector = (*Projector)(nil)

// Append renders fn immediately and appends its output under mp, which must
// be an element of this projector's document.
func (p *Projector) Append(mp engine.MountPoint, fn engine.RenderFunc) (engine.Handle, error) {
	const op = "dom.append"
	parent, ok := mp.(*Element)
	if !ok || parent == nil {
		return 0, faults.Violation(op, fmt.Sprintf("mount point %T is not a dom element", mp))
	}
	if parent.doc != p.doc {
		return 0, faults.Violation(op, "mount point belongs to another document")
	}
	if fn == nil {
		return 0, faults.Violation(op, "nil render function")
	}
	p.next++
	m := &mount{handle: p.next, fn: fn, parent: parent}
	p.mounts = append(p.mounts, m)
	p.paint(m)
	log.Debug(log.CatEngine, "dom append", "mount", parent.MountID(), "handle", m.handle)
	return m.handle, nil
}

// Detach removes the subtree painted by the function behind h. The function
// is never called again.
func (p *Projector) Detach(h engine.Handle) error {
	i := slices.IndexFunc(p.mounts, func(m *mount) bool { return m.handle == h })
	if i < 0 {
		return faults.Missing("dom.detach", fmt.Sprintf("handle %d", h))
	}
	m := p.mounts[i]
	p.mounts = slices.Delete(p.mounts, i, i+1)
	if m.live != nil {
		m.parent.removeChild(m.live)
		p.doc.mutate(1)
	}
	log.Debug(log.CatEngine, "dom detach", "mount", m.parent.MountID(), "handle", h)
	return nil
}

// ScheduleRender marks the projector for painting on the next Flush.
// Repeated requests before a flush coalesce into one paint.
func (p *Projector) ScheduleRender() {
	p.pending = true
}

// Pending reports whether a render has been requested since the last flush.
func (p *Projector) Pending() bool {
	return p.pending
}

// Renders returns how many times attached render functions were called.
func (p *Projector) Renders() int {
	return p.renders
}

// Flush re-renders every attached function and patches the live tree when a
// render is pending. It reports whether it painted.
func (p *Projector) Flush() bool {
	if !p.pending {
		return false
	}
	p.pending = false
	for _, m := range slices.Clone(p.mounts) {
		p.paint(m)
	}
	return true
}

func (p *Projector) paint(m *mount) {
	p.renders++
	desc := m.fn()
	switch {
	case desc == nil && m.live != nil:
		m.parent.removeChild(m.live)
		m.live = nil
		p.doc.mutate(1)
	case desc == nil:
	case m.live == nil:
		m.live = p.create(desc)
		m.parent.appendChild(m.live)
		p.doc.mutate(1)
	default:
		m.live = p.patch(m.live, desc)
	}
}

// create builds a live subtree for desc.
func (p *Projector) create(desc *vnode.VNode) *Element {
	if desc.IsText() {
		el := p.doc.CreateElement("")
		el.Text = desc.Text
		return el
	}
	tag, id, classes := vnode.ParseSelector(desc.Selector)
	el := p.doc.CreateElement(tag)
	el.ID = id
	el.Classes = vnode.ClassList(classes, desc.Properties.Classes)
	el.Attrs = maps.Clone(desc.Properties.Attrs)
	el.Styles = maps.Clone(desc.Properties.Styles)
	el.desc = desc
	el.owner = p
	for _, c := range desc.Children {
		el.appendChild(p.create(c))
	}
	return el
}

// patch updates live to match desc, returning the element now occupying
// live's slot (a replacement when the node kind or tag changed).
func (p *Projector) patch(live *Element, desc *vnode.VNode) *Element {
	if desc.IsText() != live.IsText() || (!desc.IsText() && desc.Tag() != live.Tag) {
		replacement := p.create(desc)
		if parent := live.Parent; parent != nil {
			i := slices.Index(parent.Children, live)
			parent.Children[i] = replacement
			replacement.Parent = parent
			live.Parent = nil
		}
		p.doc.mutate(1)
		return replacement
	}
	if desc.IsText() {
		if live.Text != desc.Text {
			live.Text = desc.Text
			p.doc.mutate(1)
		}
		return live
	}

	_, id, classes := vnode.ParseSelector(desc.Selector)
	if live.ID != id {
		live.ID = id
		p.doc.mutate(1)
	}
	if next := vnode.ClassList(classes, desc.Properties.Classes); !slices.Equal(live.Classes, next) {
		live.Classes = next
		p.doc.mutate(1)
	}
	live.Attrs = p.patchMap(live.Attrs, desc.Properties.Attrs)
	live.Styles = p.patchMap(live.Styles, desc.Properties.Styles)
	live.desc = desc
	live.owner = p

	if keyed(desc.Children) {
		p.reconcileKeyed(live, desc.Children)
	} else {
		p.reconcilePositional(live, desc.Children)
	}
	return live
}

// patchMap applies per-entry updates and counts each changed entry.
func (p *Projector) patchMap(live, next map[string]string) map[string]string {
	if maps.Equal(live, next) {
		return live
	}
	changed := 0
	for k, v := range next {
		if old, ok := live[k]; !ok || old != v {
			changed++
		}
	}
	for k := range live {
		if _, ok := next[k]; !ok {
			changed++
		}
	}
	p.doc.mutate(changed)
	return maps.Clone(next)
}

func (p *Projector) reconcilePositional(live *Element, next []*vnode.VNode) {
	old := live.Children
	for i, d := range next {
		if i < len(old) {
			p.patch(old[i], d)
			continue
		}
		live.appendChild(p.create(d))
		p.doc.mutate(1)
	}
	for len(live.Children) > len(next) {
		live.removeChild(live.Children[len(live.Children)-1])
		p.doc.mutate(1)
	}
}

// reconcileKeyed reuses live children whose description key matches, so
// reordering keyed siblings moves elements instead of rewriting them.
func (p *Projector) reconcileKeyed(live *Element, next []*vnode.VNode) {
	byKey := make(map[any]*Element, len(live.Children))
	for _, c := range live.Children {
		if c.desc != nil && usableKey(c.desc.Properties.Key) {
			byKey[c.desc.Properties.Key] = c
		}
	}
	children := make([]*Element, 0, len(next))
	for i, d := range next {
		el, ok := byKey[d.Properties.Key]
		if ok {
			delete(byKey, d.Properties.Key)
			if i >= len(live.Children) || live.Children[i] != el {
				p.doc.mutate(1)
			}
			el = p.patch(el, d)
		} else {
			el = p.create(d)
			p.doc.mutate(1)
		}
		children = append(children, el)
	}
	for _, gone := range byKey {
		gone.Parent = nil
		p.doc.mutate(1)
	}
	for _, c := range children {
		c.Parent = live
	}
	live.Children = children
}

func keyed(children []*vnode.VNode) bool {
	if len(children) == 0 {
		return false
	}
	for _, c := range children {
		if c.IsText() || !usableKey(c.Properties.Key) {
			return false
		}
	}
	return true
}

// usableKey reports whether k can index the keyed child map. Keys that are
// nil or not comparable (slices, maps, funcs) fall back to positional
// reconciliation.
func usableKey(k any) bool {
	return k != nil && reflect.ValueOf(k).Comparable()
}
