// Package metrics records inference outcomes. Recorders are shared by
// parallel sessions and must be safe for concurrent use.
package metrics

import "time"

// Outcome labels for ObserveSession.
const (
	OutcomeClassified   = "classified"
	OutcomeUnclassified = "unclassified"
	OutcomeError        = "error"
)

// Recorder receives engine events.
type Recorder interface {
	ObserveFiring(ruleID string)
	ObserveSession(strategy, outcome string, passes, firings int, duration time.Duration)
}

// Nop discards everything.
type Nop struct{}

// ObserveFiring implements Recorder.
func (Nop) ObserveFiring(string) {}

// ObserveSession implements Recorder.
func (Nop) ObserveSession(string, string, int, int, time.Duration) {}

// Multi fans events out to several recorders.
type Multi []Recorder

// ObserveFiring implements Recorder.
func (m Multi) ObserveFiring(ruleID string) {
	for _, r := range m {
		r.ObserveFiring(ruleID)
	}
}

// ObserveSession implements Recorder.
func (m Multi) ObserveSession(strategy, outcome string, passes, firings int, duration time.Duration) {
	for _, r := range m {
		r.ObserveSession(strategy, outcome, passes, firings, duration)
	}
}
