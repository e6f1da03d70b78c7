// Package form holds the answers a wizard session has collected so far.
package form

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// MediaKind classifies an evidence attachment.
type MediaKind string

const (
	KindImage    MediaKind = "image"
	KindVideo    MediaKind = "video"
	KindAudio    MediaKind = "audio"
	KindDocument MediaKind = "document"
)

// KindFromMIME maps a MIME type to a media kind. Anything that is not an
// image, video or audio type is a document.
func KindFromMIME(mimeType string) MediaKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "video/"):
		return KindVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return KindAudio
	default:
		return KindDocument
	}
}

// KindFromName guesses the media kind from a file name's extension.
func KindFromName(name string) MediaKind {
	return KindFromMIME(mime.TypeByExtension(strings.ToLower(filepath.Ext(name))))
}

// EvidenceItem is one attached artifact.
type EvidenceItem struct {
	Name   string    `json:"name"`
	Size   int64     `json:"size"`
	Kind   MediaKind `json:"kind"`
	SHA256 string    `json:"sha256,omitempty"`
}

// Values maps field names to their current values: string, bool, or
// []EvidenceItem.
type Values map[string]any

// Clone returns a deep copy. Evidence slices are copied so the clone
// never aliases the store.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		if items, ok := val.([]EvidenceItem); ok {
			val = append([]EvidenceItem(nil), items...)
		}
		out[k] = val
	}
	return out
}

// IsEmpty reports whether a value counts as unanswered: nil, a blank
// string, false, or an empty evidence list.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case bool:
		return !val
	case []EvidenceItem:
		return len(val) == 0
	default:
		return false
	}
}

// Store is the mutable form state of one session. It is not safe for
// concurrent use; the owning session serializes access.
type Store struct {
	values Values
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(Values)}
}

// Set replaces or inserts a value. No validation is performed.
func (s *Store) Set(name string, value any) {
	s.values[name] = value
}

// Get returns the value of name.
func (s *Store) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Evidence returns a copy of the items attached to field.
func (s *Store) Evidence(field string) []EvidenceItem {
	items, _ := s.values[field].([]EvidenceItem)
	return append([]EvidenceItem(nil), items...)
}

// Attach appends items to the evidence list in field and returns how many
// were added.
func (s *Store) Attach(field string, items ...EvidenceItem) int {
	if len(items) == 0 {
		return 0
	}
	cur, _ := s.values[field].([]EvidenceItem)
	next := make([]EvidenceItem, 0, len(cur)+len(items))
	next = append(next, cur...)
	next = append(next, items...)
	s.values[field] = next
	return len(items)
}

// RemoveEvidence drops the item at index from field.
func (s *Store) RemoveEvidence(field string, index int) (EvidenceItem, error) {
	cur, _ := s.values[field].([]EvidenceItem)
	if index < 0 || index >= len(cur) {
		return EvidenceItem{}, fmt.Errorf("evidence index %d out of range [0,%d)", index, len(cur))
	}
	removed := cur[index]
	next := make([]EvidenceItem, 0, len(cur)-1)
	next = append(next, cur[:index]...)
	next = append(next, cur[index+1:]...)
	s.values[field] = next
	return removed, nil
}

// Snapshot returns an independent copy of the current values.
func (s *Store) Snapshot() Values {
	return s.values.Clone()
}

// Len returns the number of fields holding a value.
func (s *Store) Len() int {
	return len(s.values)
}

// Clear discards every value.
func (s *Store) Clear() {
	s.values = make(Values)
}
