// Package facts implements the per-session working memory: caller-observed
// facts and engine-derived facts, with observed values taking precedence.
package facts

import (
	"encoding/json"
	"sort"

	"bestiary/pkg/domain"
)

// Store is owned by a single session and is not safe for concurrent use.
type Store struct {
	observed map[string]domain.Value
	derived  map[string]domain.Value
}

// New returns an empty store.
func New() *Store {
	return &Store{
		observed: make(map[string]domain.Value),
		derived:  make(map[string]domain.Value),
	}
}

// AssertObserved sets or overwrites an observed fact. Unknown is the absence
// of a fact, not a value: sessions reject it before it reaches the store,
// and the store ignores it so it can never shadow a derived fact.
func (s *Store) AssertObserved(attribute string, value domain.Value) {
	if !value.Known() {
		return
	}
	s.observed[attribute] = value
}

// Resolve returns the observed value, else the derived value, else Unknown.
func (s *Store) Resolve(attribute string) domain.Value {
	if v, ok := s.observed[attribute]; ok {
		return v
	}
	if v, ok := s.derived[attribute]; ok {
		return v
	}
	return domain.Unknown()
}

// MergeDerived writes a conclusion into the derived facts, last write wins,
// and reports whether any derived value changed.
func (s *Store) MergeDerived(conclusion []domain.Assignment) bool {
	return len(s.MergeDerivedKeys(conclusion)) > 0
}

// MergeDerivedKeys is MergeDerived returning the attributes whose derived
// value changed, in conclusion order.
func (s *Store) MergeDerivedKeys(conclusion []domain.Assignment) []string {
	var changed []string
	for _, a := range conclusion {
		if prev, ok := s.derived[a.Attribute]; ok && prev.Equal(a.Value) {
			continue
		}
		s.derived[a.Attribute] = a.Value
		changed = append(changed, a.Attribute)
	}
	return changed
}

// Derived returns the derived value alone, ignoring observed facts.
func (s *Store) Derived(attribute string) (domain.Value, bool) {
	v, ok := s.derived[attribute]
	return v, ok
}

// DerivedKeys returns the derived attribute names, sorted.
func (s *Store) DerivedKeys() []string {
	return sortedKeys(s.derived)
}

// Observed returns the observed facts sorted by attribute.
func (s *Store) Observed() []domain.Assignment {
	return assignments(s.observed)
}

// Snapshot returns an immutable merge of observed over derived facts.
func (s *Store) Snapshot() Snapshot {
	values := make(map[string]domain.Value, len(s.observed)+len(s.derived))
	for k, v := range s.derived {
		values[k] = v
	}
	for k, v := range s.observed {
		values[k] = v
	}
	return Snapshot{values: values}
}

// Snapshot is a read-only fact view. The zero Snapshot is empty.
type Snapshot struct {
	values map[string]domain.Value
}

// Get returns the value for attribute or Unknown.
func (s Snapshot) Get(attribute string) domain.Value {
	if v, ok := s.values[attribute]; ok {
		return v
	}
	return domain.Unknown()
}

// Len returns the number of known attributes.
func (s Snapshot) Len() int { return len(s.values) }

// Keys returns attribute names sorted.
func (s Snapshot) Keys() []string { return sortedKeys(s.values) }

// Assignments returns all facts sorted by attribute.
func (s Snapshot) Assignments() []domain.Assignment { return assignments(s.values) }

// MarshalJSON encodes the snapshot as a sorted attribute list.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Assignments())
}

func sortedKeys(m map[string]domain.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func assignments(m map[string]domain.Value) []domain.Assignment {
	out := make([]domain.Assignment, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, domain.Assignment{Attribute: k, Value: m[k]})
	}
	return out
}
