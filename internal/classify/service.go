// Package classify runs end-to-end classification sessions: assert the
// observed features, infer to fixpoint, attach the knowledge record and
// optionally archive and export the result.
package classify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bestiary/internal/catalog"
	"bestiary/internal/engine"
	"bestiary/internal/knowledge"
	"bestiary/internal/metrics"
	"bestiary/internal/transcript"
	"bestiary/pkg/domain"
)

// Report is the caller-facing result of one session.
type Report struct {
	SessionID      string                  `json:"session_id"`
	Strategy       string                  `json:"strategy"`
	Observed       []domain.Assignment     `json:"observed"`
	Firings        []domain.Firing         `json:"firings"`
	Classification domain.Classification   `json:"classification"`
	Knowledge      *domain.KnowledgeRecord `json:"knowledge,omitempty"`
	Facts          []domain.Assignment     `json:"facts"`
	Passes         int                     `json:"passes"`
	Skipped        int                     `json:"skipped,omitempty"`
	StartedAt      time.Time               `json:"started_at"`
	ResolvedAt     time.Time               `json:"resolved_at"`
	Archived       bool                    `json:"archived"`
	TranscriptKey  string                  `json:"transcript_key,omitempty"`
}

// Record converts the report to its archived form.
func (r Report) Record() domain.SessionRecord {
	return domain.SessionRecord{
		SessionID:      r.SessionID,
		Strategy:       r.Strategy,
		Observed:       append([]domain.Assignment(nil), r.Observed...),
		Firings:        append([]domain.Firing(nil), r.Firings...),
		Classification: r.Classification,
		Passes:         r.Passes,
		StartedAt:      r.StartedAt,
		ResolvedAt:     r.ResolvedAt,
	}
}

// Option configures a Service.
type Option func(*Service)

// WithStrategy selects the engine pass strategy.
func WithStrategy(st engine.Strategy) Option { return func(s *Service) { s.strategy = st } }

// WithLogger attaches a logger shared by every session.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder attaches a metrics recorder shared by every session.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithArchive saves every resolved session to store.
func WithArchive(store domain.ArchiveStore) Option { return func(s *Service) { s.archive = store } }

// WithTranscripts exports every resolved session through w.
func WithTranscripts(w *transcript.Writer) Option { return func(s *Service) { s.transcripts = w } }

// WithIDGenerator overrides the UUID session ID source, for tests.
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithClock overrides the session clock, for tests.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// Service is safe for concurrent use; each call gets its own session.
type Service struct {
	catalog     *catalog.Catalog
	knowledge   *knowledge.Base
	strategy    engine.Strategy
	logger      *zap.Logger
	recorder    metrics.Recorder
	archive     domain.ArchiveStore
	transcripts *transcript.Writer
	newID       func() string
	now         func() time.Time
}

// NewService binds a catalog and knowledge base.
func NewService(cat *catalog.Catalog, kb *knowledge.Base, opts ...Option) *Service {
	s := &Service{
		catalog:   cat,
		knowledge: kb,
		strategy:  engine.StrategyNaive,
		logger:    zap.NewNop(),
		recorder:  metrics.Nop{},
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the bound rule catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Vocabulary returns the sorted condition attribute names.
func (s *Service) Vocabulary() []string { return s.catalog.Vocabulary() }

// Animals lists every animal with a knowledge record, in declaration order.
func (s *Service) Animals() []string { return s.knowledge.Names() }

// Knowledge returns the record for name, or the empty record.
func (s *Service) Knowledge(name string) domain.KnowledgeRecord { return s.knowledge.Lookup(name) }

// Archive returns the configured archive, or nil.
func (s *Service) Archive() domain.ArchiveStore { return s.archive }

// NewSession starts a session with a fresh UUID.
func (s *Service) NewSession() *engine.Session {
	opts := []engine.Option{
		engine.WithID(s.newID()),
		engine.WithStrategy(s.strategy),
		engine.WithLogger(s.logger),
		engine.WithRecorder(s.recorder),
	}
	if s.now != nil {
		opts = append(opts, engine.WithClock(s.now))
	}
	return engine.NewSession(s.catalog, opts...)
}

// Classify runs one session to completion. When archiving or export fails
// the returned report is still complete and the error names the failing
// step.
func (s *Service) Classify(ctx context.Context, observed []domain.Assignment) (Report, error) {
	session := s.NewSession()
	if err := session.AssertAll(observed); err != nil {
		return Report{}, err
	}
	out, err := session.Infer(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("classify session %s: %w", session.ID(), err)
	}
	report := s.report(out)
	return report, s.persist(ctx, &report, out)
}

func (s *Service) report(out engine.Outcome) Report {
	r := Report{
		SessionID:      out.SessionID,
		Strategy:       string(out.Strategy),
		Observed:       out.Observed,
		Firings:        out.Firings,
		Classification: out.Classification,
		Facts:          out.Facts.Assignments(),
		Passes:         out.Passes,
		Skipped:        out.Skipped,
		StartedAt:      out.StartedAt,
		ResolvedAt:     out.ResolvedAt,
	}
	if rec, ok := s.knowledge.Find(out.Classification.Name); ok {
		r.Knowledge = &rec
	}
	return r
}

func (s *Service) persist(ctx context.Context, report *Report, out engine.Outcome) error {
	var errs []error
	if s.archive != nil {
		if err := s.archive.Save(ctx, out.Record()); err != nil {
			s.logger.Error("archive session failed", zap.String("session_id", report.SessionID), zap.Error(err))
			errs = append(errs, fmt.Errorf("archive session %s: %w", report.SessionID, err))
		} else {
			report.Archived = true
		}
	}
	if s.transcripts != nil {
		info, err := s.transcripts.Write(ctx, transcript.Document{
			Session:   report.Record(),
			Facts:     report.Facts,
			Knowledge: report.Knowledge,
		})
		if err != nil {
			s.logger.Error("export transcript failed", zap.String("session_id", report.SessionID), zap.Error(err))
			errs = append(errs, fmt.Errorf("export session %s: %w", report.SessionID, err))
		} else {
			report.TranscriptKey = info.Key
		}
	}
	return errors.Join(errs...)
}

// ClassifyBatch classifies each observation set in its own session, at most
// parallelism at a time, and returns reports in input order. An inference
// failure cancels the remaining work. Archive and export failures do not:
// every report is returned together with the joined persistence errors.
func (s *Service) ClassifyBatch(ctx context.Context, batches [][]domain.Assignment, parallelism int) ([]Report, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	reports := make([]Report, len(batches))
	persistErrs := make([]error, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, observed := range batches {
		g.Go(func() error {
			r, err := s.Classify(gctx, observed)
			if err != nil && r.SessionID == "" {
				return fmt.Errorf("batch item %d: %w", i, err)
			}
			reports[i] = r
			if err != nil {
				persistErrs[i] = fmt.Errorf("batch item %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Info("batch classified", zap.Int("sessions", len(batches)), zap.Int("parallelism", parallelism))
	return reports, errors.Join(persistErrs...)
}
