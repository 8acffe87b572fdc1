// Package catalog holds the immutable, ordered rule set consumed by the
// inference engine. Declaration order is the scan order.
package catalog

import (
	"fmt"
	"sort"

	"bestiary/pkg/domain"
)

// Catalog is safe for concurrent use; it is never mutated after New.
type Catalog struct {
	rules      []domain.Rule
	index      map[string]int
	vocabulary []string
}

// New validates rules and freezes them in the given order. Any malformed
// rule aborts construction.
func New(rules []domain.Rule) (*Catalog, error) {
	c := &Catalog{
		rules: make([]domain.Rule, 0, len(rules)),
		index: make(map[string]int, len(rules)),
	}
	vocab := make(map[string]struct{})
	for i, r := range rules {
		if err := validateRule(r); err != nil {
			return nil, &RuleError{Index: i, RuleID: r.ID, Err: err}
		}
		if _, dup := c.index[r.ID]; dup {
			return nil, &RuleError{Index: i, RuleID: r.ID, Err: ErrDuplicateRule}
		}
		c.index[r.ID] = len(c.rules)
		c.rules = append(c.rules, r.Clone())
		for _, cond := range r.Conditions {
			vocab[cond.Attribute] = struct{}{}
		}
	}
	c.vocabulary = make([]string, 0, len(vocab))
	for attr := range vocab {
		c.vocabulary = append(c.vocabulary, attr)
	}
	sort.Strings(c.vocabulary)
	return c, nil
}

// MustNew is New for statically known rule sets.
func MustNew(rules []domain.Rule) *Catalog {
	c, err := New(rules)
	if err != nil {
		panic(fmt.Errorf("catalog: %w", err))
	}
	return c
}

func validateRule(r domain.Rule) error {
	if r.ID == "" {
		return ErrMissingID
	}
	if len(r.Conditions) == 0 {
		return ErrNoConditions
	}
	if len(r.Conclusion) == 0 {
		return ErrNoConclusion
	}
	if err := validateAssignments(r.Conditions); err != nil {
		return fmt.Errorf("condition: %w", err)
	}
	if err := validateAssignments(r.Conclusion); err != nil {
		return fmt.Errorf("conclusion: %w", err)
	}
	return nil
}

func validateAssignments(list []domain.Assignment) error {
	seen := make(map[string]struct{}, len(list))
	for _, a := range list {
		if a.Attribute == "" {
			return ErrEmptyAttribute
		}
		if !a.Value.Known() {
			return fmt.Errorf("%s: %w", a.Attribute, ErrInvalidValue)
		}
		if _, dup := seen[a.Attribute]; dup {
			return fmt.Errorf("%s: %w", a.Attribute, ErrDuplicateAttribute)
		}
		seen[a.Attribute] = struct{}{}
	}
	return nil
}

// Len returns the number of rules.
func (c *Catalog) Len() int { return len(c.rules) }

// Rules returns a copy of the rules in declaration order.
func (c *Catalog) Rules() []domain.Rule {
	out := make([]domain.Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Clone()
	}
	return out
}

// Rule looks up a rule by ID.
func (c *Catalog) Rule(id string) (domain.Rule, bool) {
	i, ok := c.index[id]
	if !ok {
		return domain.Rule{}, false
	}
	return c.rules[i].Clone(), true
}

// Position returns the declaration index of a rule, or -1.
func (c *Catalog) Position(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// Vocabulary returns every condition attribute once, sorted
// lexicographically so picklist numbering is stable across runs.
func (c *Catalog) Vocabulary() []string {
	return append([]string(nil), c.vocabulary...)
}
