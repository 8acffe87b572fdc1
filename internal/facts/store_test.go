package facts

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"bestiary/pkg/domain"
)

func TestResolveDistinguishesUnknownFromFalse(t *testing.T) {
	s := New()
	s.AssertObserved("驯化", domain.Bool(false))

	if got := s.Resolve("驯化"); !got.Equal(domain.Bool(false)) {
		t.Fatalf("expected false, got %v", got)
	}
	if got := s.Resolve("吠叫"); got.Known() {
		t.Fatalf("expected unknown, got %v", got)
	}
}

func TestObservedTakesPrecedenceOverDerived(t *testing.T) {
	s := New()
	s.MergeDerived([]domain.Assignment{{Attribute: "大类", Value: domain.Category("鸟类")}})
	s.AssertObserved("大类", domain.Category("哺乳动物"))

	if got := s.Resolve("大类"); !got.Equal(domain.Category("哺乳动物")) {
		t.Fatalf("observed must win, got %v", got)
	}
	if v, ok := s.Derived("大类"); !ok || !v.Equal(domain.Category("鸟类")) {
		t.Fatalf("derived value must be retained, got %v ok=%v", v, ok)
	}
	if got := s.Snapshot().Get("大类"); !got.Equal(domain.Category("哺乳动物")) {
		t.Fatalf("snapshot must prefer observed, got %v", got)
	}
}

func TestAssertObservedLastWriteWins(t *testing.T) {
	s := New()
	s.AssertObserved("毛发颜色", domain.Category("棕色"))
	s.AssertObserved("毛发颜色", domain.Category("灰色"))
	if got := s.Resolve("毛发颜色"); !got.Equal(domain.Category("灰色")) {
		t.Fatalf("expected last write, got %v", got)
	}
}

func TestAssertObservedIgnoresUnknown(t *testing.T) {
	s := New()
	s.AssertObserved("有毛发", domain.Unknown())
	if len(s.Observed()) != 0 {
		t.Fatalf("unknown must not be stored: %v", s.Observed())
	}
}

func TestMergeDerivedReportsChanges(t *testing.T) {
	s := New()
	concl := []domain.Assignment{
		{Attribute: "大类", Value: domain.Category("节肢动物")},
		{Attribute: "亚类", Value: domain.Category("蛛形纲")},
	}
	if !s.MergeDerived(concl) {
		t.Fatal("first merge must change facts")
	}
	if s.MergeDerived(concl) {
		t.Fatal("identical merge must be a no-op")
	}
	keys := s.MergeDerivedKeys([]domain.Assignment{
		{Attribute: "大类", Value: domain.Category("节肢动物")},
		{Attribute: "动物名称", Value: domain.Category("蜘蛛")},
	})
	if diff := cmp.Diff([]string{"动物名称"}, keys); diff != "" {
		t.Fatalf("changed keys mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeDerivedOverwrites(t *testing.T) {
	s := New()
	s.MergeDerived([]domain.Assignment{{Attribute: "亚类", Value: domain.Category("犬科")}})
	if !s.MergeDerived([]domain.Assignment{{Attribute: "亚类", Value: domain.Category("猫科")}}) {
		t.Fatal("overwrite must report change")
	}
	if got := s.Resolve("亚类"); !got.Equal(domain.Category("猫科")) {
		t.Fatalf("expected overwrite, got %v", got)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := New()
	s.AssertObserved("有毛发", domain.Bool(true))
	snap := s.Snapshot()
	s.MergeDerived([]domain.Assignment{{Attribute: "大类", Value: domain.Category("哺乳动物")}})

	if snap.Len() != 1 {
		t.Fatalf("snapshot must not observe later writes, got %v", snap.Keys())
	}
	if diff := cmp.Diff([]string{"大类", "有毛发"}, s.Snapshot().Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	var zero Snapshot
	if zero.Get("x").Known() || zero.Len() != 0 {
		t.Fatal("zero snapshot must be empty")
	}
}

func TestSnapshotJSON(t *testing.T) {
	s := New()
	s.AssertObserved("有毛发", domain.Bool(true))
	s.MergeDerived([]domain.Assignment{{Attribute: "大类", Value: domain.Category("哺乳动物")}})
	data, err := s.Snapshot().MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"attribute":"大类","value":"哺乳动物"},{"attribute":"有毛发","value":true}]`
	if string(data) != want {
		t.Fatalf("got %s want %s", data, want)
	}
}
