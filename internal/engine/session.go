// Package engine runs naive forward chaining over a rule catalog. A Session
// owns one fact store and firing log and walks INIT → ACCUMULATING →
// INFERRING → RESOLVED exactly once.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bestiary/internal/catalog"
	"bestiary/internal/facts"
	"bestiary/internal/metrics"
	"bestiary/pkg/domain"
)

// Outcome is the frozen result of a resolved session.
type Outcome struct {
	SessionID      string
	Strategy       Strategy
	Firings        []domain.Firing
	Classification domain.Classification
	Passes         int
	// Skipped counts rule evaluations avoided by StrategyIndexed.
	Skipped    int
	Facts      facts.Snapshot
	Observed   []domain.Assignment
	StartedAt  time.Time
	ResolvedAt time.Time
}

// Record converts the outcome to its archived form.
func (o Outcome) Record() domain.SessionRecord {
	return domain.SessionRecord{
		SessionID:      o.SessionID,
		Strategy:       string(o.Strategy),
		Observed:       append([]domain.Assignment(nil), o.Observed...),
		Firings:        append([]domain.Firing(nil), o.Firings...),
		Classification: o.Classification,
		Passes:         o.Passes,
		StartedAt:      o.StartedAt,
		ResolvedAt:     o.ResolvedAt,
	}
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session identifier used in logs and archives.
func WithID(id string) Option { return func(s *Session) { s.id = id } }

// WithStrategy selects the pass strategy.
func WithStrategy(st Strategy) Option { return func(s *Session) { s.strategy = st } }

// WithLogger attaches a logger; firings are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session is not safe for concurrent use; confine it to one goroutine.
// Independent sessions may share a catalog and run in parallel.
type Session struct {
	id       string
	catalog  *catalog.Catalog
	rules    []domain.Rule
	strategy Strategy
	logger   *zap.Logger
	recorder metrics.Recorder
	now      func() time.Time

	phase     domain.Phase
	facts     *facts.Store
	fired     []bool
	firings   []domain.Firing
	passes    int
	skipped   int
	startedAt time.Time
	outcome   *Outcome
}

// NewSession starts a session in PhaseInit against cat.
func NewSession(cat *catalog.Catalog, opts ...Option) *Session {
	s := &Session{
		catalog:  cat,
		strategy: StrategyNaive,
		logger:   zap.NewNop(),
		recorder: metrics.Nop{},
		now:      func() time.Time { return time.Now().UTC() },
		phase:    domain.PhaseInit,
		facts:    facts.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rules = cat.Rules()
	s.fired = make([]bool, len(s.rules))
	s.startedAt = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() domain.Phase { return s.phase }

// Strategy returns the configured pass strategy.
func (s *Session) Strategy() Strategy { return s.strategy }

// Assert records an observed fact. Attributes outside the catalog
// vocabulary are accepted and simply never match.
func (s *Session) Assert(attribute string, value domain.Value) error {
	switch s.phase {
	case domain.PhaseInit, domain.PhaseAccumulating:
	default:
		return fmt.Errorf("assert %s: %w", attribute, ErrSessionResolved)
	}
	if !value.Known() {
		return fmt.Errorf("assert %s: %w", attribute, ErrUnknownValue)
	}
	s.phase = domain.PhaseAccumulating
	s.facts.AssertObserved(attribute, value)
	return nil
}

// AssertAll asserts each assignment in order.
func (s *Session) AssertAll(observed []domain.Assignment) error {
	for _, a := range observed {
		if err := s.Assert(a.Attribute, a.Value); err != nil {
			return err
		}
	}
	return nil
}

// Facts returns the current fact snapshot.
func (s *Session) Facts() facts.Snapshot { return s.facts.Snapshot() }

// Firings returns the firing log so far.
func (s *Session) Firings() []domain.Firing {
	return append([]domain.Firing(nil), s.firings...)
}

// Infer runs the fixpoint loop to completion and resolves the session.
// ctx is checked between passes. A session that fails to infer is still
// terminal; Outcome reports false for it.
func (s *Session) Infer(ctx context.Context) (Outcome, error) {
	if s.phase == domain.PhaseInferring || s.phase == domain.PhaseResolved {
		return Outcome{}, ErrSessionResolved
	}
	s.phase = domain.PhaseInferring
	began := time.Now()
	err := s.fixpoint(ctx)
	elapsed := time.Since(began)
	s.phase = domain.PhaseResolved

	if err != nil {
		s.recorder.ObserveSession(string(s.strategy), metrics.OutcomeError, s.passes, len(s.firings), elapsed)
		s.logger.Error("inference failed",
			zap.String("session_id", s.id),
			zap.Int("passes", s.passes),
			zap.Error(err))
		return Outcome{}, err
	}

	snap := s.facts.Snapshot()
	out := Outcome{
		SessionID:      s.id,
		Strategy:       s.strategy,
		Firings:        append([]domain.Firing(nil), s.firings...),
		Classification: Classify(snap),
		Passes:         s.passes,
		Skipped:        s.skipped,
		Facts:          snap,
		Observed:       s.facts.Observed(),
		StartedAt:      s.startedAt,
		ResolvedAt:     s.now(),
	}
	s.outcome = &out

	outcome := metrics.OutcomeUnclassified
	if out.Classification.Classified() {
		outcome = metrics.OutcomeClassified
	}
	s.recorder.ObserveSession(string(s.strategy), outcome, out.Passes, len(out.Firings), elapsed)
	s.logger.Info("session resolved",
		zap.String("session_id", s.id),
		zap.String("strategy", string(s.strategy)),
		zap.String("name", out.Classification.Name),
		zap.String("category", out.Classification.Category),
		zap.String("subcategory", out.Classification.Subcategory),
		zap.Int("firings", len(out.Firings)),
		zap.Int("passes", out.Passes))
	return out, nil
}

// Outcome returns the resolved outcome, if inference succeeded.
func (s *Session) Outcome() (Outcome, bool) {
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

// Classify reads the designated attributes from a fact snapshot.
func Classify(snap facts.Snapshot) domain.Classification {
	c := domain.Classification{
		Name:        domain.Unclassified,
		Category:    text(snap.Get(domain.AttrCategory)),
		Subcategory: text(snap.Get(domain.AttrSubcategory)),
	}
	if name := snap.Get(domain.AttrName); name.Known() {
		c.Name = name.String()
	}
	return c
}

func text(v domain.Value) string {
	if !v.Known() {
		return ""
	}
	return v.String()
}
