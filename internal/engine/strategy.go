package engine

import "fmt"

// Strategy selects how a pass decides which rules to evaluate.
type Strategy string

const (
	// StrategyNaive re-evaluates every unfired rule on every pass.
	StrategyNaive Strategy = "naive"
	// StrategyIndexed skips an unfired rule when none of its condition
	// attributes changed since its last failed evaluation. Rules that are
	// evaluated are still visited in catalog order, so the firing log is
	// identical to StrategyNaive.
	StrategyIndexed Strategy = "indexed"
)

// ParseStrategy accepts "naive", "indexed" or "" (naive).
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyNaive:
		return StrategyNaive, nil
	case StrategyIndexed:
		return StrategyIndexed, nil
	default:
		return "", fmt.Errorf("unknown inference strategy %q", s)
	}
}
