// Package evidence turns local files into evidence items with a SHA256
// digest.
package evidence

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/form"
)

// sniffLen is how much of a file http.DetectContentType looks at.
const sniffLen = 512

// FromFile describes the regular file at path: base name, size, digest and
// media kind. The kind comes from the extension, or from the content when
// the extension is not recognised.
func FromFile(path string) (form.EvidenceItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return form.EvidenceItem{}, err
	}
	if info.IsDir() {
		return form.EvidenceItem{}, fmt.Errorf("%s is a directory", path)
	}
	hash, size, err := HashFile(path)
	if err != nil {
		return form.EvidenceItem{}, fmt.Errorf("hash attachment: %w", err)
	}
	item := form.EvidenceItem{
		Name:   filepath.Base(path),
		Size:   size,
		Kind:   form.KindFromName(path),
		SHA256: hash,
	}
	if item.Kind == form.KindDocument {
		if kind, err := sniff(path); err == nil {
			item.Kind = kind
		}
	}
	return item, nil
}

// FromPath is FromFile for names that may not exist locally. An unreadable
// path yields an item with only the name and the kind its extension implies.
func FromPath(path string) form.EvidenceItem {
	if item, err := FromFile(path); err == nil {
		return item
	}
	return form.EvidenceItem{Name: filepath.Base(path), Kind: form.KindFromName(path)}
}

// HashFile computes SHA256 hash and file size.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), size, nil
}

func sniff(path string) (form.MediaKind, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return form.KindFromMIME(http.DetectContentType(buf[:n])), nil
}
