package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKindFromMIME(t *testing.T) {
	tests := map[string]MediaKind{
		"image/png":       KindImage,
		"video/mp4":       KindVideo,
		"audio/mpeg":      KindAudio,
		"application/pdf": KindDocument,
		"":                KindDocument,
	}
	for in, want := range tests {
		if got := KindFromMIME(in); got != want {
			t.Errorf("KindFromMIME(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKindFromName(t *testing.T) {
	if got := KindFromName("screenshot.PNG"); got != KindImage {
		t.Errorf("png = %q, want image", got)
	}
	if got := KindFromName("notes"); got != KindDocument {
		t.Errorf("no extension = %q, want document", got)
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, true},
		{"", true},
		{"   ", true},
		{"x", false},
		{false, true},
		{true, false},
		{[]EvidenceItem{}, true},
		{[]EvidenceItem{{Name: "a"}}, false},
		{42, false},
	}
	for _, tt := range tests {
		if got := IsEmpty(tt.v); got != tt.want {
			t.Errorf("IsEmpty(%#v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestStore_SetGetSnapshot(t *testing.T) {
	s := NewStore()
	s.Set("branch", "army")
	s.Set("consent", true)

	v, ok := s.Get("branch")
	if !ok || v != "army" {
		t.Fatalf("Get(branch) = %v, %v", v, ok)
	}

	snap := s.Snapshot()
	s.Set("branch", "navy")
	if snap["branch"] != "army" {
		t.Error("snapshot should not observe later writes")
	}
	want := Values{"branch": "army", "consent": true}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_AttachAndRemove(t *testing.T) {
	s := NewStore()
	if n := s.Attach("evidence"); n != 0 {
		t.Errorf("empty attach = %d, want 0", n)
	}
	n := s.Attach("evidence",
		EvidenceItem{Name: "a.png", Size: 10, Kind: KindImage},
		EvidenceItem{Name: "b.pdf", Size: 20, Kind: KindDocument},
	)
	if n != 2 {
		t.Fatalf("attached = %d, want 2", n)
	}
	snap := s.Snapshot()

	removed, err := s.RemoveEvidence("evidence", 0)
	if err != nil {
		t.Fatal(err)
	}
	if removed.Name != "a.png" {
		t.Errorf("removed = %q, want a.png", removed.Name)
	}
	got := s.Evidence("evidence")
	if len(got) != 1 || got[0].Name != "b.pdf" {
		t.Errorf("remaining = %+v", got)
	}
	if items := snap["evidence"].([]EvidenceItem); len(items) != 2 {
		t.Error("snapshot evidence should be unaffected by removal")
	}

	if _, err := s.RemoveEvidence("evidence", 5); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.Set("a", "b")
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len after Clear = %d", s.Len())
	}
}
