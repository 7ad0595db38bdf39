// Package faults defines the error taxonomy shared by the composition core,
// the lifecycle host and the render engines.
//
// Every failure here is an integration error: a unit registered twice, a
// unit removed that was never registered, or a hook invoked outside its
// documented ordering. None of them are recovered locally; they propagate
// to the host, which stops.
package faults

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a failure.
type Kind int

const (
	// KindUnknown is any error that did not originate from this taxonomy.
	KindUnknown Kind = iota
	// KindDuplicateMember is an attempt to register the same unit twice.
	KindDuplicateMember
	// KindMissingMember is an attempt to remove or look up an absent unit.
	KindMissingMember
	// KindContractViolation is a hook or callback invoked out of order.
	KindContractViolation
)

func (k Kind) String() string {
	switch k {
	case KindDuplicateMember:
		return "duplicate-member"
	case KindMissingMember:
		return "missing-member"
	case KindContractViolation:
		return "contract-violation"
	default:
		return "unknown"
	}
}

var (
	ErrDuplicateMember   = errors.New("unit is already a member")
	ErrMissingMember     = errors.New("unit is not a member")
	ErrContractViolation = errors.New("lifecycle contract violation")
)

// Error is a categorised failure raised by a named operation.
type Error struct {
	// Op is the operation that failed (e.g. "set.add", "root.tick").
	Op string
	// Kind categorises the failure.
	Kind Kind
	// Detail is a short human-readable explanation.
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Op, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s [%s]", e.Op, e.Kind)
}

// Unwrap returns the sentinel for the error's kind so callers can use
// errors.Is(err, faults.ErrMissingMember).
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindDuplicateMember:
		return ErrDuplicateMember
	case KindMissingMember:
		return ErrMissingMember
	case KindContractViolation:
		return ErrContractViolation
	default:
		return nil
	}
}

// Duplicate returns a DuplicateMember error for op.
func Duplicate(op, detail string) *Error {
	return &Error{Op: op, Kind: KindDuplicateMember, Detail: detail}
}

// Missing returns a MissingMember error for op.
func Missing(op, detail string) *Error {
	return &Error{Op: op, Kind: KindMissingMember, Detail: detail}
}

// Violation returns a ContractViolation error for op.
func Violation(op, detail string) *Error {
	return &Error{Op: op, Kind: KindContractViolation, Detail: detail}
}

// KindOf reports the kind of err, looking through wrapping.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	switch {
	case errors.Is(err, ErrDuplicateMember):
		return KindDuplicateMember
	case errors.Is(err, ErrMissingMember):
		return KindMissingMember
	case errors.Is(err, ErrContractViolation):
		return KindContractViolation
	}
	return KindUnknown
}
