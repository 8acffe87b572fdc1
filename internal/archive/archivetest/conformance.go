// Package archivetest holds a behavioural suite every archive driver must pass.
package archivetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"bestiary/pkg/domain"
)

// Record builds a representative resolved session.
func Record(id string, resolvedAt time.Time) domain.SessionRecord {
	return domain.SessionRecord{
		SessionID: id,
		Strategy:  "naive",
		Observed: []domain.Assignment{
			{Attribute: "有毛发", Value: domain.Bool(true)},
			{Attribute: "毛发颜色", Value: domain.Category("棕色")},
		},
		Firings:        []domain.Firing{{RuleID: "R1", Description: "若该动物有毛发，那么它是哺乳动物"}},
		Classification: domain.Classification{Name: domain.Unclassified, Category: "哺乳动物"},
		Passes:         2,
		StartedAt:      resolvedAt.Add(-time.Millisecond),
		ResolvedAt:     resolvedAt,
	}
}

// Conformance exercises save/get/list semantics against an empty store.
func Conformance(t *testing.T, store domain.ArchiveStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	second := Record("b", base.Add(time.Second))
	first := Record("a", base)
	tie := Record("c", base.Add(time.Second))
	for _, rec := range []domain.SessionRecord{second, tie, first} {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", rec.SessionID, err)
		}
	}

	if err := store.Save(ctx, first); !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}
	if err := store.Save(ctx, Record("", base)); err == nil {
		t.Fatal("expected error for empty session id")
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(first, got, cmp.Comparer(domain.Value.Equal)); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, rec := range list {
		ids = append(ids, rec.SessionID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids); diff != "" {
		t.Fatalf("list order mismatch (-want +got):\n%s", diff)
	}
}
