// Package projector connects renderable units to render engines.
//
// A Registration contributes one unit to the renderable set shared through
// a scope. A Root owns that set's presentation: on activation it asks the
// engine for a projector and attaches a render function that wraps the
// set's flattened output in a single root element.
package projector

import (
	"fmt"

	"github.com/zjrosen/arbor/internal/lifecycle"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/renderable"
	"github.com/zjrosen/arbor/internal/scope"
)

// RegistrationOption configures a Registration.
type RegistrationOption func(*Registration)

// WithRegistrationKey selects the scope key the registration contributes to.
func WithRegistrationKey(key scope.Key) RegistrationOption {
	return func(r *Registration) {
		r.key = key
	}
}

// Registration is a chip that adds its unit to the scope's renderable set
// while active. The set is looked up on every hook and never retained.
type Registration struct {
	lifecycle.Base
	unit *renderable.Unit
	key  scope.Key
}

var _ lifecycle.Chip = (*Registration)(nil)

// NewRegistration wraps unit. The unit may be any shape accepted by
// renderable.From.
func NewRegistration(unit any, opts ...RegistrationOption) (*Registration, error) {
	u, err := renderable.From(unit)
	if err != nil {
		return nil, err
	}
	r := &Registration{unit: u, key: scope.DefaultKey}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// MustRegistration is NewRegistration that panics on an unusable unit.
func MustRegistration(unit any, opts ...RegistrationOption) *Registration {
	r, err := NewRegistration(unit, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Unit returns the wrapped unit.
func (r *Registration) Unit() *renderable.Unit {
	return r.unit
}

// Key returns the scope key the registration contributes to.
func (r *Registration) Key() scope.Key {
	return r.key
}

// Activate adds the unit to the set provided under the registration's key.
func (r *Registration) Activate(ctx *scope.Context) error {
	const op = "registration.activate"
	if err := r.BeginActivate(op, ctx); err != nil {
		return err
	}
	set, err := ctx.Set(r.key)
	if err != nil {
		return err
	}
	if err := set.Add(r.unit); err != nil {
		return err
	}
	r.MarkActive(ctx)
	log.Debug(log.CatRegistration, "registered", "unit", r.unit, "key", r.key, "members", set.Len())
	return nil
}

// Tick forwards the tick to the unit's renderer when it animates.
func (r *Registration) Tick(info lifecycle.TickInfo) error {
	if err := r.CheckActive("registration.tick"); err != nil {
		return err
	}
	if adv, ok := r.unit.Renderer().(lifecycle.Advancer); ok {
		adv.Advance(info)
	}
	return nil
}

// Terminate removes the unit from the set, re-resolved through the scope the
// registration was activated with. The registration is inactive afterwards
// even when removal fails.
func (r *Registration) Terminate() error {
	const op = "registration.terminate"
	if err := r.CheckActive(op); err != nil {
		return err
	}
	ctx := r.Context()
	r.MarkInactive()

	set, err := ctx.Set(r.key)
	if err != nil {
		return err
	}
	if err := set.Remove(r.unit); err != nil {
		log.Warn(log.CatRegistration, "unit already gone", "unit", r.unit, "key", r.key)
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Debug(log.CatRegistration, "unregistered", "unit", r.unit, "key", r.key, "members", set.Len())
	return nil
}
