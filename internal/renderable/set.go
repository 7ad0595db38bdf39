package renderable

import (
	"slices"

	"github.com/zjrosen/arbor/internal/faults"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/vnode"
)

// Set is an ordered collection of units that is itself a Renderer: rendering
// it flattens every member's output in insertion order.
//
// The slice is the source of truth for order; index only answers presence.
// Set is not safe for concurrent use. Hosts mutate and render it from a
// single goroutine.
type Set struct {
	units []*Unit
	index map[*Unit]struct{}
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{index: make(map[*Unit]struct{})}
}

// Add appends u. Adding a unit that is already a member fails with
// faults.ErrDuplicateMember and leaves the set unchanged.
func (s *Set) Add(u *Unit) error {
	if u == nil {
		return faults.Violation("set.add", "nil unit")
	}
	if _, ok := s.index[u]; ok {
		return faults.Duplicate("set.add", u.String())
	}
	if s.index == nil {
		s.index = make(map[*Unit]struct{})
	}
	s.units = append(s.units, u)
	s.index[u] = struct{}{}
	log.Debug(log.CatSet, "unit added", "unit", u, "members", len(s.units))
	return nil
}

// Remove deletes exactly the slot holding u. Removing a unit that is not a
// member fails with faults.ErrMissingMember and leaves the set unchanged.
func (s *Set) Remove(u *Unit) error {
	if u == nil {
		return faults.Missing("set.remove", "unit(nil)")
	}
	if _, ok := s.index[u]; !ok {
		return faults.Missing("set.remove", u.String())
	}
	i := slices.Index(s.units, u)
	s.units = slices.Delete(s.units, i, i+1)
	delete(s.index, u)
	log.Debug(log.CatSet, "unit removed", "unit", u, "members", len(s.units))
	return nil
}

// Contains reports whether u is a member.
func (s *Set) Contains(u *Unit) bool {
	_, ok := s.index[u]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.units)
}

// Units returns the members in render order.
func (s *Set) Units() []*Unit {
	return slices.Clone(s.units)
}

// Render resolves every member in order and concatenates the results.
// Membership is fixed when Render is called; units added by a member's own
// render side effects appear on the next pass.
func (s *Set) Render() []*vnode.VNode {
	members := slices.Clone(s.units)
	var out []*vnode.VNode
	for _, u := range members {
		out = append(out, Resolve(u)...)
	}
	return out
}

// Element wraps inner's flattened output as the children of one element.
func Element(selector string, props vnode.Properties, inner Renderer) *Unit {
	return Func(func() []*vnode.VNode {
		return []*vnode.VNode{vnode.H(selector, props, inner.Render()...)}
	})
}
