// Package scope provides the shared context through which registrations and
// root projectors agree on which renderable set to use.
//
// A Context maps well-known keys to concrete sets. Child contexts inherit
// their parent's provisions and may shadow them, which is how a nested
// group gives its children a set of their own.
package scope

import (
	"fmt"
	"slices"

	"github.com/zjrosen/arbor/internal/faults"
	"github.com/zjrosen/arbor/internal/renderable"
)

// Key names a set within a Context.
type Key string

// DefaultKey names the renderable set shared by a root projector and the
// registrations under it.
const DefaultKey Key = "renderableSet"

// Context is a scope-lifetime lookup from Key to set.
type Context struct {
	parent *Context
	sets   map[Key]*renderable.Set
}

// New creates an empty root Context.
func New() *Context {
	return &Context{sets: make(map[Key]*renderable.Set)}
}

// NewWithDefault creates a root Context providing a fresh set under
// DefaultKey.
func NewWithDefault() *Context {
	return New().Provide(DefaultKey, renderable.NewSet())
}

// Provide binds set to key in this context, shadowing any parent binding.
// It returns c for chaining.
func (c *Context) Provide(key Key, set *renderable.Set) *Context {
	if c.sets == nil {
		c.sets = make(map[Key]*renderable.Set)
	}
	c.sets[key] = set
	return c
}

// Child creates a context that inherits c's bindings.
func (c *Context) Child() *Context {
	return &Context{parent: c, sets: make(map[Key]*renderable.Set)}
}

// Parent returns the enclosing context, or nil at the root.
func (c *Context) Parent() *Context {
	return c.parent
}

// Set returns the set bound to key, searching enclosing contexts. A missing
// binding is a contract violation: the host never provided the set the
// caller was configured to use.
func (c *Context) Set(key Key) (*renderable.Set, error) {
	for cur := c; cur != nil; cur = cur.parent {
		if s, ok := cur.sets[key]; ok && s != nil {
			return s, nil
		}
	}
	return nil, faults.Violation("scope.set", fmt.Sprintf("no renderable set provided under %q", key))
}

// Keys returns every key visible from c, sorted.
func (c *Context) Keys() []Key {
	seen := make(map[Key]struct{})
	for cur := c; cur != nil; cur = cur.parent {
		for k := range cur.sets {
			seen[k] = struct{}{}
		}
	}
	keys := make([]Key, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
