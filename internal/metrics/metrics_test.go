package metrics

import (
	"encoding/json"
	"expvar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("NewPrometheus: %v", err)
	}
	p.ObserveFiring("R1")
	p.ObserveFiring("R1")
	p.ObserveFiring("R12")
	p.ObserveSession("naive", OutcomeClassified, 3, 2, 5*time.Millisecond)

	if got := testutil.ToFloat64(p.firings.WithLabelValues("R1")); got != 2 {
		t.Fatalf("expected 2 R1 firings, got %v", got)
	}
	if got := testutil.ToFloat64(p.sessions.WithLabelValues("naive", OutcomeClassified)); got != 1 {
		t.Fatalf("expected 1 session, got %v", got)
	}
	expected := `
# HELP bestiary_rule_firings_total Rule firings by rule identifier.
# TYPE bestiary_rule_firings_total counter
bestiary_rule_firings_total{rule="R1"} 2
bestiary_rule_firings_total{rule="R12"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "bestiary_rule_firings_total"); err != nil {
		t.Fatalf("unexpected exposition: %v", err)
	}
	if n := testutil.CollectAndCount(p.passes); n != 1 {
		t.Fatalf("expected one passes series, got %d", n)
	}
}

func TestPrometheusDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheus(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheus(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestExpvarRecorderPublishesSnapshot(t *testing.T) {
	rec := NewExpvar("")
	rec.ObserveFiring("R3")
	rec.ObserveSession("indexed", OutcomeUnclassified, 2, 1, 2*time.Millisecond)

	snap := rec.Snapshot()
	if snap.Firings["R3"] != 1 || snap.Sessions[OutcomeUnclassified] != 1 || snap.PassesTotal != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	v := expvar.Get(rec.Name())
	if v == nil {
		t.Fatalf("expvar %s not published", rec.Name())
	}
	var decoded ExpvarSnapshot
	if err := json.Unmarshal([]byte(v.String()), &decoded); err != nil {
		t.Fatalf("decode expvar: %v", err)
	}
	if decoded.Firings["R3"] != 1 {
		t.Fatalf("expvar payload mismatch: %+v", decoded)
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewExpvar(""), NewExpvar("")
	m := Multi{a, b, Nop{}}
	m.ObserveFiring("R5")
	m.ObserveSession("naive", OutcomeError, 0, 0, 0)
	for _, rec := range []*Expvar{a, b} {
		snap := rec.Snapshot()
		if snap.Firings["R5"] != 1 || snap.Sessions[OutcomeError] != 1 {
			t.Fatalf("recorder %s missed events: %+v", rec.Name(), snap)
		}
	}
}
