package metrics

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// Expvar publishes aggregate counters via expvar for deployments that do
// not scrape Prometheus.
type Expvar struct {
	name       string
	mu         sync.Mutex
	sessions   map[string]int64
	firings    map[string]int64
	passes     int64
	durationMS float64
}

// ExpvarSnapshot is a read-only copy of the recorded counters.
type ExpvarSnapshot struct {
	Sessions        map[string]int64 `json:"sessions_total"`
	Firings         map[string]int64 `json:"rule_firings_total"`
	PassesTotal     int64            `json:"passes_total"`
	DurationMSTotal float64          `json:"duration_ms_total"`
	RecordedAt      time.Time        `json:"recorded_at"`
}

// NewExpvar publishes a recorder under name; an empty name gets a unique
// generated one. expvar names are process-global, so reuse panics.
func NewExpvar(name string) *Expvar {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("bestiary_inference_%d", id)
	}
	rec := &Expvar{
		name:     name,
		sessions: make(map[string]int64),
		firings:  make(map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name.
func (e *Expvar) Name() string { return e.name }

// ObserveFiring implements Recorder.
func (e *Expvar) ObserveFiring(ruleID string) {
	e.mu.Lock()
	e.firings[ruleID]++
	e.mu.Unlock()
}

// ObserveSession implements Recorder.
func (e *Expvar) ObserveSession(_ string, outcome string, passes, _ int, duration time.Duration) {
	e.mu.Lock()
	e.sessions[outcome]++
	e.passes += int64(passes)
	e.durationMS += float64(duration) / float64(time.Millisecond)
	e.mu.Unlock()
}

// Snapshot returns a copy of the counters.
func (e *Expvar) Snapshot() ExpvarSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	sessions := make(map[string]int64, len(e.sessions))
	for k, v := range e.sessions {
		sessions[k] = v
	}
	firings := make(map[string]int64, len(e.firings))
	for k, v := range e.firings {
		firings[k] = v
	}
	return ExpvarSnapshot{
		Sessions:        sessions,
		Firings:         firings,
		PassesTotal:     e.passes,
		DurationMSTotal: e.durationMS,
		RecordedAt:      time.Now().UTC(),
	}
}
