package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		MCPSessions: DefaultMCPSessions,
		Enrich:      EnrichConfig{Delay: 2 * time.Second, Min: 60, Max: 100},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults (-want +got):\n%s", diff)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"PORTAL_LOG_LEVEL":    "debug",
		"PORTAL_LOG_FORMAT":   "json",
		"PORTAL_TRACE":        " /tmp/portal.jsonl ",
		"PORTAL_ENRICH_DELAY": "150ms",
		"PORTAL_ENRICH_MIN":   "70",
		"PORTAL_ENRICH_MAX":   "90",
		"PORTAL_MCP_SESSIONS": "8",
	}))
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		LogLevel:    "debug",
		LogFormat:   "json",
		Trace:       "/tmp/portal.jsonl",
		MCPSessions: 8,
		Enrich:      EnrichConfig{Delay: 150 * time.Millisecond, Min: 70, Max: 90},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("overrides (-want +got):\n%s", diff)
	}
	a := cfg.Enrich.Analyzer()
	if a.Delay != 150*time.Millisecond || a.Min != 70 || a.Max != 90 {
		t.Errorf("analyzer = %+v", a)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"format":   {"PORTAL_LOG_FORMAT": "xml"},
		"delay":    {"PORTAL_ENRICH_DELAY": "soon"},
		"negative": {"PORTAL_ENRICH_DELAY": "-1s"},
		"min":      {"PORTAL_ENRICH_MIN": "sixty"},
		"inverted": {"PORTAL_ENRICH_MIN": "95", "PORTAL_ENRICH_MAX": "90"},
		"sessions": {"PORTAL_MCP_SESSIONS": "0"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := FromEnv(envMap(env)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.env")
	if err := os.WriteFile(path, []byte("PORTAL_ENRICH_MAX=85\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORTAL_ENRICH_MAX", "")
	os.Unsetenv("PORTAL_ENRICH_MAX")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Enrich.Max != 85 {
		t.Errorf("max = %d, want 85 from env file", cfg.Enrich.Max)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("expected error for missing env file")
	}
}
