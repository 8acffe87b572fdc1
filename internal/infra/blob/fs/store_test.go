package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bestiary/internal/blob/blobtest"
	"bestiary/internal/blob/core"
)

func TestConformance(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	blobtest.Conformance(t, s)
}

func TestRejectsEscapingKeys(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "/abs", "../up", "a/../../up", "x.meta", "."} {
		if _, err := s.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestPutWritesSidecarAndLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	info, err := s.Put(context.Background(), "d/one.json", strings.NewReader("{}"), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if len(info.ETag) != 64 {
		t.Fatalf("expected sha256 etag, got %q", info.ETag)
	}
	entries, err := os.ReadDir(filepath.Join(root, "d"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "one.json,one.json.meta" {
		t.Fatalf("unexpected files %v", names)
	}
}

func TestNewDefaultsRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	s, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Root() != DefaultRoot {
		t.Fatalf("expected default root, got %q", s.Root())
	}
	if _, err := os.Stat(DefaultRoot); err != nil {
		t.Fatalf("default root not created: %v", err)
	}
}

func TestCorruptSidecarSurfaces(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Put(context.Background(), "k", strings.NewReader("v"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "k.meta"), []byte("{"), 0o600); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, err := s.Head(context.Background(), "k"); err == nil || errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if _, err := s.List(context.Background(), ""); err == nil {
		t.Fatal("expected list to surface corrupt sidecar")
	}
}
