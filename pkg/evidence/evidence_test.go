package evidence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/form"
)

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := form.EvidenceItem{
		Name:   "notes.txt",
		Size:   5,
		Kind:   form.KindDocument,
		SHA256: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromFile mismatch (-want +got):\n%s", diff)
	}
}

func TestFromFile_SniffsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.bin")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := FromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != form.KindImage {
		t.Errorf("Kind = %q, want image", got.Kind)
	}
}

func TestFromFile_Errors(t *testing.T) {
	if _, err := FromFile(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := FromFile(t.TempDir()); err == nil {
		t.Error("expected error for directory")
	}
}

func TestFromPath_Missing(t *testing.T) {
	got := FromPath("/nonexistent/photo.png")
	want := form.EvidenceItem{Name: "photo.png", Kind: form.KindImage}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromPath mismatch (-want +got):\n%s", diff)
	}
}
