// Package validate implements the wizard/v0 3-phase validation pipeline:
// structural → semantic → domain.
package validate

import (
	"bytes"
	"fmt"
	"os"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
)

// ValidationError represents one error or warning from the validation pipeline.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s at %s", e.Phase, e.Message, e.Path)
	}
	return fmt.Sprintf("[%s] %s", e.Phase, e.Message)
}

func errorf(phase, path, msg string, args ...any) *ValidationError {
	return &ValidationError{
		Phase:    phase,
		Path:     path,
		Message:  fmt.Sprintf(msg, args...),
		Severity: "error",
	}
}

func warningf(phase, path, msg string, args ...any) *ValidationError {
	return &ValidationError{
		Phase:    phase,
		Path:     path,
		Message:  fmt.Sprintf(msg, args...),
		Severity: "warning",
	}
}

// ValidateFile runs the full 3-phase pipeline on a definition file.
func ValidateFile(path string) (*schema.Wizard, []*ValidationError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []*ValidationError{errorf("structural", "", "failed to read: %s", err)}
	}
	return ValidateBytes(data)
}

// ValidateBytes runs the full pipeline on a YAML document.
func ValidateBytes(data []byte) (*schema.Wizard, []*ValidationError) {
	// Phase 1: Structural (strict YAML decode)
	w, err := schema.Load(bytes.NewReader(data))
	if err != nil {
		return nil, []*ValidationError{errorf("structural", "", "failed to load: %s", err)}
	}

	// Phase 2: Semantic (JSON Schema over the raw document)
	errs := validateSemanticYAML(data)
	if HasErrors(errs) {
		return w, errs
	}

	// Phase 3: Domain (hand-coded rules)
	errs = append(errs, validateDomain(w)...)
	return w, errs
}

// ValidateWizard runs phases 2+3 on an already-loaded definition.
func ValidateWizard(w *schema.Wizard) []*ValidationError {
	errs := validateSemanticWizard(w)
	if HasErrors(errs) {
		return errs
	}
	return append(errs, validateDomain(w)...)
}

// HasErrors reports whether any entry has error severity.
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}
