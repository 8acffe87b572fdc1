// Package blobtest holds a behavioural suite every blob driver must pass.
package blobtest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"bestiary/internal/blob/core"
)

// Conformance exercises put/get/head/list/delete semantics against store,
// which must start empty.
func Conformance(t *testing.T, store core.Store) {
	t.Helper()
	ctx := context.Background()

	info, err := store.Put(ctx, "sessions/2025/01/02/a.json", strings.NewReader(`{"a":1}`),
		core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"session-id": "a"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "sessions/2025/01/02/a.json" || info.Size != 7 {
		t.Fatalf("unexpected put info: %+v", info)
	}

	if _, err := store.Put(ctx, "sessions/2025/01/02/a.json", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists on duplicate put, got %v", err)
	}

	got, rc, err := store.Get(ctx, "sessions/2025/01/02/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != `{"a":1}` {
		t.Fatalf("unexpected body %q", body)
	}
	if got.ContentType != "application/json" || got.Metadata["session-id"] != "a" {
		t.Fatalf("unexpected get info: %+v", got)
	}

	head, err := store.Head(ctx, "sessions/2025/01/02/a.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Size != 7 {
		t.Fatalf("unexpected head size %d", head.Size)
	}

	if _, _, err := store.Get(ctx, "sessions/missing.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
	if _, err := store.Head(ctx, "sessions/missing.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}

	for _, key := range []string{"sessions/2025/01/03/c.json", "sessions/2025/01/02/b.json", "other/x.json"} {
		if _, err := store.Put(ctx, key, strings.NewReader("{}"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	list, err := store.List(ctx, "sessions/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var keys []string
	for _, i := range list {
		keys = append(keys, i.Key)
	}
	want := "sessions/2025/01/02/a.json,sessions/2025/01/02/b.json,sessions/2025/01/03/c.json"
	if strings.Join(keys, ",") != want {
		t.Fatalf("unexpected list order %v", keys)
	}

	deleted, err := store.Delete(ctx, "other/x.json")
	if err != nil || !deleted {
		t.Fatalf("delete existing: %v %v", deleted, err)
	}
	deleted, err = store.Delete(ctx, "other/x.json")
	if err != nil || deleted {
		t.Fatalf("delete missing: %v %v", deleted, err)
	}
	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 blobs after delete, got %d", len(all))
	}
}
