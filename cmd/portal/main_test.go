package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestListWizards(t *testing.T) {
	var buf bytes.Buffer
	if err := listWizards(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 wizards, got:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[0], "KIND") {
		t.Errorf("header = %q", lines[0])
	}
	out := buf.String()
	for _, want := range []string{"secure-authentication", "incident-report", "serving,veteran", "guided-family-report"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	os.WriteFile(good, []byte(`apiVersion: wizard/v0
meta:
  name: leave-request
  kind: leave
  id_prefix: LVE
fields:
  - name: reason
    type: string
steps:
  - id: reason
    required: [reason]
`), 0o644)
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte(`apiVersion: wizard/v0
meta:
  name: broken
  kind: broken
  id_prefix: lower
steps:
  - id: one
    required: [missing]
`), 0o644)

	var stdout, stderr bytes.Buffer
	if err := runValidate(&stdout, &stderr, good); err != nil {
		t.Fatalf("good file: %v\n%s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "✓ leave-request is valid (1 steps)") {
		t.Errorf("stdout = %q", stdout.String())
	}

	stdout.Reset()
	stderr.Reset()
	if err := runValidate(&stdout, &stderr, bad); err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(stderr.String(), "Validation failed") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
