package engine

import (
	"context"

	"go.uber.org/zap"

	"bestiary/pkg/domain"
)

// fixpoint repeats catalog-order passes until a pass fires nothing or no
// unfired rule remains. Every non-final pass fires at least one rule, so
// the pass count never exceeds the rule count.
func (s *Session) fixpoint(ctx context.Context) error {
	budget := len(s.rules)
	remaining := budget

	// Indexed bookkeeping: tick advances on each fact change; changedAt
	// holds the tick of an attribute's last change and evaluatedAt the tick
	// at which a rule last failed to match (-1 = never evaluated).
	tick := 0
	changedAt := make(map[string]int)
	evaluatedAt := make([]int, len(s.rules))
	for i := range evaluatedAt {
		evaluatedAt[i] = -1
	}

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.passes >= budget {
			return ErrPassBudgetExceeded
		}
		s.passes++
		changed := false

		for i, r := range s.rules {
			if s.fired[i] {
				continue
			}
			if s.strategy == StrategyIndexed && evaluatedAt[i] >= 0 && !touchedSince(r, changedAt, evaluatedAt[i]) {
				s.skipped++
				continue
			}
			if !s.matches(r) {
				evaluatedAt[i] = tick
				continue
			}

			keys := s.facts.MergeDerivedKeys(r.Conclusion)
			if len(keys) > 0 {
				tick++
				for _, k := range keys {
					changedAt[k] = tick
				}
			}
			s.fired[i] = true
			remaining--
			s.firings = append(s.firings, domain.Firing{RuleID: r.ID, Description: r.Description})
			changed = true

			s.recorder.ObserveFiring(r.ID)
			s.logger.Debug("rule fired",
				zap.String("session_id", s.id),
				zap.String("rule_id", r.ID),
				zap.Int("pass", s.passes),
				zap.Strings("changed", keys))
		}

		if !changed {
			break
		}
	}
	return nil
}

// matches reports whether every condition resolves to its expected value.
func (s *Session) matches(r domain.Rule) bool {
	for _, cond := range r.Conditions {
		got := s.facts.Resolve(cond.Attribute)
		if !got.Known() || !got.Equal(cond.Value) {
			return false
		}
	}
	return true
}

func touchedSince(r domain.Rule, changedAt map[string]int, since int) bool {
	for _, cond := range r.Conditions {
		if changedAt[cond.Attribute] > since {
			return true
		}
	}
	return false
}

// PendingMatches returns the unfired rules whose conditions hold against
// the current facts, in catalog order. After a successful Infer it is
// always empty.
func (s *Session) PendingMatches() []string {
	var ids []string
	for i, r := range s.rules {
		if !s.fired[i] && s.matches(r) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
