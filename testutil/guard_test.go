package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInternalImportForbidden(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"bestiary/internal/engine", true},
		{"example.com/mod/internal/x", true},
		{"bestiary/pkg/domain", false},
		{"internal", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestThirdPartyImportForbidden(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"fmt", false},
		{"encoding/json", false},
		{"go.uber.org/zap", true},
		{"github.com/spf13/cobra", true},
		{"bestiary/pkg/domain", false},
	}
	for _, c := range cases {
		if got := ThirdPartyImportForbidden(c.in); got != c.want {
			t.Fatalf("ThirdPartyImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestPrefixForbidden(t *testing.T) {
	pred := AnyForbidden(PrefixForbidden("bestiary/internal/infra"), PrefixForbidden("bestiary/internal/classify"))
	cases := []struct {
		in   string
		want bool
	}{
		{"bestiary/internal/infra", true},
		{"bestiary/internal/infra/blob/s3", true},
		{"bestiary/internal/classify", true},
		{"bestiary/internal/infrastructure", false},
		{"bestiary/internal/engine", false},
	}
	for _, c := range cases {
		if got := pred(c.in); got != c.want {
			t.Fatalf("pred(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func writeSource(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestAssertNoDirectImportsPasses(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "x.go", "package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}\n")
	writeSource(t, dir, "x_test.go", "package tmp\nimport _ \"example.com/mod/internal/y\"\n")
	AssertNoDirectImports(t, dir, InternalImportForbidden, "tests are not scanned")
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "b.go", "package tmp\nimport _ \"example.com/mod/internal/y\"\n")
	writeSource(t, dir, "a.go", "package tmp\nimport (\n\t\"fmt\"\n\t_ \"go.uber.org/zap\"\n)\nvar _ = fmt.Sprint\n")
	if err := os.Mkdir(filepath.Join(dir, "sub.go"), 0o750); err != nil {
		t.Fatal(err)
	}

	viols, err := directImportViolations(dir, AnyForbidden(InternalImportForbidden, ThirdPartyImportForbidden))
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	want := []string{"example.com/mod/internal/y (in b.go)", "go.uber.org/zap (in a.go)"}
	if strings.Join(viols, "|") != strings.Join(want, "|") {
		t.Fatalf("violations = %v, want %v", viols, want)
	}
}

func TestDirectImportViolationsErrors(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), InternalImportForbidden); err == nil {
		t.Fatal("expected error for missing dir")
	}
	dir := t.TempDir()
	writeSource(t, dir, "bad.go", "package tmp\nimport (\n")
	if _, err := directImportViolations(dir, InternalImportForbidden); err == nil {
		t.Fatal("expected parse error")
	}
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestFailIfViolations(t *testing.T) {
	var rec recordingFatal
	failIfViolations(&rec, "reason", nil)
	if rec.msg != "" {
		t.Fatalf("unexpected failure: %s", rec.msg)
	}
	failIfViolations(&rec, "domain stays pure", []string{"a", "b"})
	if !strings.Contains(rec.msg, "domain stays pure") || !strings.Contains(rec.msg, "a\nb") {
		t.Fatalf("unexpected message: %s", rec.msg)
	}
}
