package validate

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
)

func testdataPath(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata", name)
}

func filterErrors(errs []*ValidationError) []*ValidationError {
	var out []*ValidationError
	for _, e := range errs {
		if e.Severity == "error" {
			out = append(out, e)
		}
	}
	return out
}

func containsMessage(errs []*ValidationError, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidateFile_Valid(t *testing.T) {
	w, errs := ValidateFile(testdataPath("valid.yaml"))
	for _, e := range errs {
		t.Errorf("unexpected finding: %s", e)
	}
	if w == nil {
		t.Fatal("expected wizard, got nil")
	}
	if w.Meta.Name != "leave-request" || w.Total() != 3 {
		t.Errorf("loaded %q with %d steps", w.Meta.Name, w.Total())
	}
}

func TestValidateFile_Missing(t *testing.T) {
	_, errs := ValidateFile(testdataPath("does-not-exist.yaml"))
	if len(errs) != 1 || errs[0].Phase != "structural" {
		t.Errorf("errs = %v", errs)
	}
}

func TestValidateFile_UnknownField(t *testing.T) {
	w, errs := ValidateFile(testdataPath("unknown_field.yaml"))
	if w != nil {
		t.Error("structural failure should not return a wizard")
	}
	if len(errs) != 1 || errs[0].Phase != "structural" {
		t.Fatalf("errs = %v", errs)
	}
	if !strings.Contains(errs[0].Message, "colour") {
		t.Errorf("message should name the unknown key: %s", errs[0].Message)
	}
}

func TestValidateFile_Semantic(t *testing.T) {
	_, errs := ValidateFile(testdataPath("semantic_errors.yaml"))
	errors := filterErrors(errs)
	if len(errors) == 0 {
		t.Fatal("expected semantic errors")
	}
	for _, e := range errors {
		if e.Phase != "semantic" {
			t.Errorf("domain phase should not run after semantic errors: %s", e)
		}
	}
	var sawType bool
	for _, e := range errors {
		if strings.HasPrefix(e.Path, "fields/0/type") {
			sawType = true
		}
	}
	if !sawType {
		t.Errorf("expected an error at fields/0/type, got %v", errors)
	}
}

func TestValidateFile_Domain(t *testing.T) {
	_, errs := ValidateFile(testdataPath("domain_errors.yaml"))
	errors := filterErrors(errs)

	want := []string{
		`expected "wizard/v0"`,
		"must be upper-case letters only",
		`choice field "topic" requires options`,
		"only one evidence field is allowed",
		`duplicate field "topic"`,
		`required field "ghost" is not declared`,
		`field "topic" is both required and optional`,
		"rule does not compile",
		`duplicate step ID "first"`,
		`duplicate branch ID "b"`,
	}
	for _, msg := range want {
		if !containsMessage(errors, msg) {
			t.Errorf("expected error containing %q", msg)
		}
	}
	for _, e := range errors {
		if e.Phase != "domain" {
			t.Errorf("unexpected phase: %s", e)
		}
	}

	var warnings []string
	for _, e := range errs {
		if e.Severity == "warning" {
			warnings = append(warnings, e.Message)
		}
	}
	joined := strings.Join(warnings, "\n")
	if !strings.Contains(joined, `field "unused" is not used`) {
		t.Errorf("expected unused-field warning, got:\n%s", joined)
	}
	if !strings.Contains(joined, `branch "b" has no notice`) {
		t.Errorf("expected missing-notice warning, got:\n%s", joined)
	}
}

func TestValidateWizard_Builtins(t *testing.T) {
	for _, kind := range schema.BuiltinKinds() {
		t.Run(kind, func(t *testing.T) {
			w, err := schema.Builtin(kind)
			if err != nil {
				t.Fatal(err)
			}
			for _, e := range filterErrors(ValidateWizard(w)) {
				t.Errorf("builtin %s: %s", kind, e)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	e := errorf("domain", "steps[0].id", "step ID is required")
	if got := e.Error(); got != "[domain] step ID is required at steps[0].id" {
		t.Errorf("Error() = %q", got)
	}
	e = errorf("structural", "", "failed")
	if got := e.Error(); got != "[structural] failed" {
		t.Errorf("Error() = %q", got)
	}
}
