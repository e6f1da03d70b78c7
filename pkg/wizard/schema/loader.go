package schema

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed definitions/*.yaml
var definitions embed.FS

// LoadFile reads and structurally decodes a wizard/v0 definition YAML.
// Returns a structural error if the YAML contains unknown fields.
func LoadFile(path string) (*Wizard, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wizard: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a wizard/v0 definition from a reader.
func Load(r io.Reader) (*Wizard, error) {
	var w Wizard
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // strict: reject unknown fields
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("structural decode: %w", err)
	}
	normalize(&w)
	return &w, nil
}

// normalize trims whitespace that YAML block scalars leave behind.
func normalize(w *Wizard) {
	for i := range w.Steps {
		s := &w.Steps[i]
		s.Description = strings.TrimSpace(s.Description)
		for j := range s.Rules {
			s.Rules[j].Expr = strings.TrimSpace(s.Rules[j].Expr)
		}
		for j := range s.Branches {
			s.Branches[j].When = strings.TrimSpace(s.Branches[j].When)
			s.Branches[j].Notice = strings.TrimSpace(s.Branches[j].Notice)
		}
	}
}

// Builtin returns a fresh copy of the embedded definition for kind.
func Builtin(kind string) (*Wizard, error) {
	data, err := definitions.ReadFile(path.Join("definitions", kind+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown wizard kind %q", kind)
	}
	return Load(bytes.NewReader(data))
}

// BuiltinKinds lists the embedded wizard kinds in sorted order.
func BuiltinKinds() []string {
	entries, err := fs.ReadDir(definitions, "definitions")
	if err != nil {
		return nil
	}
	var kinds []string
	for _, e := range entries {
		kinds = append(kinds, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(kinds)
	return kinds
}
