package catalog

import (
	"errors"
	"fmt"
)

// Configuration errors reported by New. Use errors.Is against a *RuleError.
var (
	ErrMissingID          = errors.New("rule id is empty")
	ErrDuplicateRule      = errors.New("duplicate rule id")
	ErrNoConditions       = errors.New("rule has no conditions")
	ErrNoConclusion       = errors.New("rule has no conclusion")
	ErrEmptyAttribute     = errors.New("attribute name is empty")
	ErrDuplicateAttribute = errors.New("attribute repeated within rule")
	ErrInvalidValue       = errors.New("value must be a bool or category")
)

// RuleError ties a configuration error to the offending rule.
type RuleError struct {
	Index  int
	RuleID string
	Err    error
}

func (e *RuleError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("rule #%d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("rule %s: %v", e.RuleID, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }
