package engine

import "errors"

var (
	// ErrSessionResolved is returned when a session is asserted into or
	// inferred again after leaving the accumulating phase.
	ErrSessionResolved = errors.New("session already resolved")
	// ErrUnknownValue is returned when an observation carries no value.
	// Unknown is the absence of a fact and cannot be asserted.
	ErrUnknownValue = errors.New("observed value is unknown")
	// ErrPassBudgetExceeded means the fixpoint loop needed more passes than
	// the catalog has rules. Monotone firing makes this unreachable; seeing
	// it indicates an engine bug.
	ErrPassBudgetExceeded = errors.New("fixpoint pass budget exceeded")
)
