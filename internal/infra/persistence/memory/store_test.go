package memory

import (
	"context"
	"testing"
	"time"

	"bestiary/internal/archive/archivetest"
)

func TestConformance(t *testing.T) {
	archivetest.Conformance(t, NewStore())
}

func TestRecordsAreDetached(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	rec := archivetest.Record("x", time.Now().UTC())
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec.Firings[0].RuleID = "mutated"
	got, err := s.Get(ctx, "x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Firings[0].RuleID != "R1" {
		t.Fatalf("store aliased caller slice: %+v", got.Firings)
	}
}

func TestClosedStoreRejectsSaves(t *testing.T) {
	s := NewStore()
	_ = s.Close()
	if err := s.Save(context.Background(), archivetest.Record("x", time.Now())); err == nil {
		t.Fatal("expected error after close")
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStore().List(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
