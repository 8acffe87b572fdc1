package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"bestiary/internal/archive"
	"bestiary/internal/blob"
	"bestiary/internal/catalog"
	"bestiary/internal/config"
	"bestiary/internal/engine"
	"bestiary/internal/knowledge"
	"bestiary/internal/metrics"
	"bestiary/internal/transcript"
	"bestiary/pkg/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	kb, err := knowledge.Default()
	if err != nil {
		t.Fatalf("knowledge: %v", err)
	}
	return NewService(cat, kb, opts...)
}

func flags(attrs ...string) []domain.Assignment {
	out := make([]domain.Assignment, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, domain.Assignment{Attribute: a, Value: domain.Bool(true)})
	}
	return out
}

func sequentialIDs() func() string {
	var n int64
	return func() string { return fmt.Sprintf("s-%03d", atomic.AddInt64(&n, 1)) }
}

func TestClassifyAttachesKnowledge(t *testing.T) {
	svc := newService(t)
	report, err := svc.Classify(context.Background(), flags("有毛发", "驯化", "吠叫", "忠诚"))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	want := domain.Classification{Name: "狗", Category: "哺乳动物", Subcategory: "犬科"}
	if diff := cmp.Diff(want, report.Classification); diff != "" {
		t.Fatalf("classification mismatch (-want +got):\n%s", diff)
	}
	if report.Knowledge == nil || report.Knowledge.Subcategory != "犬科" {
		t.Fatalf("expected dog knowledge, got %+v", report.Knowledge)
	}
	if _, err := uuid.Parse(report.SessionID); err != nil {
		t.Fatalf("session id is not a uuid: %q", report.SessionID)
	}
	if report.Archived || report.TranscriptKey != "" {
		t.Fatalf("nothing should be persisted without sinks: %+v", report)
	}
}

func TestClassifyUnclassifiedHasNoKnowledge(t *testing.T) {
	svc := newService(t)
	report, err := svc.Classify(context.Background(), flags("四条腿", "温血", "胎生"))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if report.Classification.Name != domain.Unclassified || report.Knowledge != nil {
		t.Fatalf("unexpected report %+v", report)
	}
	if !svc.Knowledge(report.Classification.Name).IsZero() {
		t.Fatal("unclassified must map to the empty record")
	}
}

func TestVocabularyAndAnimals(t *testing.T) {
	svc := newService(t)
	if diff := cmp.Diff(svc.Catalog().Vocabulary(), svc.Vocabulary()); diff != "" {
		t.Fatalf("vocabulary mismatch:\n%s", diff)
	}
	if len(svc.Animals()) != 10 || svc.Animals()[0] != "狗" {
		t.Fatalf("unexpected animals %v", svc.Animals())
	}
}

func TestClassifyArchivesAndExports(t *testing.T) {
	ctx := context.Background()
	store, err := archive.Open(ctx, config.Archive{Driver: config.ArchiveMemory})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	blobs := blob.NewMemory()
	fixed := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	svc := newService(t,
		WithArchive(store),
		WithTranscripts(transcript.NewWriter(blobs, nil)),
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return fixed }),
		WithStrategy(engine.StrategyIndexed),
	)

	report, err := svc.Classify(ctx, flags("八条腿", "会织网", "捕食昆虫"))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !report.Archived || report.TranscriptKey != "sessions/2025/06/01/s-001.json" {
		t.Fatalf("unexpected persistence fields %+v", report)
	}

	rec, err := store.Get(ctx, "s-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(report.Record(), rec, cmp.Comparer(domain.Value.Equal)); diff != "" {
		t.Fatalf("archived record mismatch (-want +got):\n%s", diff)
	}

	doc, err := transcript.Read(ctx, blobs, report.TranscriptKey)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if doc.Session.Strategy != "indexed" || doc.Knowledge == nil || doc.Knowledge.Name != "蜘蛛" {
		t.Fatalf("unexpected transcript %+v", doc)
	}
}

func TestPersistenceFailureStillReturnsReport(t *testing.T) {
	ctx := context.Background()
	store, _ := archive.Open(ctx, config.Archive{Driver: config.ArchiveMemory})
	svc := newService(t, WithArchive(store), WithIDGenerator(func() string { return "same" }))

	if _, err := svc.Classify(ctx, flags("有毛发")); err != nil {
		t.Fatalf("first classify: %v", err)
	}
	report, err := svc.Classify(ctx, flags("有羽毛"))
	if !errors.Is(err, archive.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if report.Classification.Category != "鸟类" || report.Archived {
		t.Fatalf("report must be complete and unarchived: %+v", report)
	}
}

func TestClassifyBatchKeepsReportsOnPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	store, _ := archive.Open(ctx, config.Archive{Driver: config.ArchiveMemory})
	svc := newService(t, WithArchive(store), WithIDGenerator(func() string { return "same" }))

	reports, err := svc.ClassifyBatch(ctx, [][]domain.Assignment{flags("有毛发"), flags("有羽毛")}, 1)
	if !errors.Is(err, archive.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if !strings.Contains(err.Error(), "batch item 1") {
		t.Fatalf("error should name the failing item: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if !reports[0].Archived || reports[0].Classification.Category != "哺乳动物" {
		t.Fatalf("first report: %+v", reports[0])
	}
	if reports[1].Archived || reports[1].Classification.Category != "鸟类" {
		t.Fatalf("second report must be complete and unarchived: %+v", reports[1])
	}
}

func TestClassifyBatchPreservesInputOrder(t *testing.T) {
	svc := newService(t)
	batches := [][]domain.Assignment{
		flags("有毛发", "驯化", "喵叫", "爱干净"),
		flags("八条腿", "会织网", "捕食昆虫"),
		flags("四条腿", "温血", "胎生"),
		nil,
		flags("有羽毛", "驯化", "下蛋", "咯咯叫"),
	}
	var want []string
	for _, b := range batches {
		r, err := svc.Classify(context.Background(), b)
		if err != nil {
			t.Fatalf("classify: %v", err)
		}
		want = append(want, r.Classification.Name)
	}

	for _, parallelism := range []int{0, 1, 3, 16} {
		reports, err := svc.ClassifyBatch(context.Background(), batches, parallelism)
		if err != nil {
			t.Fatalf("batch(%d): %v", parallelism, err)
		}
		var got []string
		for _, r := range reports {
			got = append(got, r.Classification.Name)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("batch(%d) order mismatch (-want +got):\n%s", parallelism, diff)
		}
	}
}

func TestClassifyBatchMatchesSequentialReports(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := newService(t, WithClock(func() time.Time { return fixed }))
	batches := [][]domain.Assignment{flags("有毛发", "驯化", "吠叫", "忠诚"), flags("有外骨骼", "六条腿")}
	reports, err := svc.ClassifyBatch(context.Background(), batches, 2)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	for i, b := range batches {
		single, err := svc.Classify(context.Background(), b)
		if err != nil {
			t.Fatalf("classify: %v", err)
		}
		opts := []cmp.Option{cmp.Comparer(domain.Value.Equal), cmpopts.IgnoreFields(Report{}, "SessionID")}
		if diff := cmp.Diff(single, reports[i], opts...); diff != "" {
			t.Fatalf("item %d differs (-single +batch):\n%s", i, diff)
		}
	}
}

func TestClassifyBatchCancelled(t *testing.T) {
	svc := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.ClassifyBatch(ctx, [][]domain.Assignment{flags("有毛发"), flags("有羽毛")}, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSessionsReportMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewPrometheus(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	svc := newService(t, WithRecorder(rec))
	batches := [][]domain.Assignment{flags("有毛发", "驯化", "吠叫", "忠诚"), flags("有毛发")}
	if _, err := svc.ClassifyBatch(context.Background(), batches, 2); err != nil {
		t.Fatalf("batch: %v", err)
	}
	expected := `
# HELP bestiary_sessions_total Resolved inference sessions by strategy and outcome.
# TYPE bestiary_sessions_total counter
bestiary_sessions_total{outcome="classified",strategy="naive"} 1
bestiary_sessions_total{outcome="unclassified",strategy="naive"} 1
# HELP bestiary_rule_firings_total Rule firings by rule identifier.
# TYPE bestiary_rule_firings_total counter
bestiary_rule_firings_total{rule="R1"} 2
bestiary_rule_firings_total{rule="R12"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "bestiary_sessions_total", "bestiary_rule_firings_total"); err != nil {
		t.Fatalf("metrics mismatch: %v", err)
	}
}
