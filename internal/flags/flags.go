// Package flags provides feature flags read from the flags section of the
// config. Flags are read-only after initialization and unknown flags are off.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/arbor/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagAdvancedEvents puts the root projector in advanced mode: event
	// handlers never schedule a render, the next tick picks changes up.
	FlagAdvancedEvents = "advanced-events"

	// FlagSceneWatch reloads the scene when its file changes on disk.
	FlagSceneWatch = "scene-watch"

	// FlagLogPane shows the tail of the debug log under the scene.
	FlagLogPane = "log-pane"
)

var known = []string{FlagAdvancedEvents, FlagSceneWatch, FlagLogPane}

// Known returns the flag names arbor recognises, sorted.
func Known() []string {
	out := slices.Clone(known)
	slices.Sort(out)
	return out
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. The map is copied.
// If flags is nil, an empty registry is created (all flags disabled).
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: make(map[string]bool, len(flags))}
	maps.Copy(r.flags, flags)
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(r.flags), "flags", r.All())
	if unknown := r.Unknown(); len(unknown) > 0 {
		log.Warn(log.CatConfig, "Unknown feature flags configured", "flags", unknown)
	}
	return r
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags and on a nil registry.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		return false
	}
	return value
}

// With returns a copy of the registry with name forced to enabled.
// Command-line switches use it to override the config file.
func (r *Registry) With(name string, enabled bool) *Registry {
	next := &Registry{flags: r.All()}
	next.flags[name] = enabled
	return next
}

// All returns a copy of all flags (for debugging/logging).
// Returns an empty map if the registry is nil.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}

// Unknown returns the configured flag names arbor does not recognise, sorted.
func (r *Registry) Unknown() []string {
	var out []string
	for name := range r.All() {
		if !slices.Contains(known, name) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
