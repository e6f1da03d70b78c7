package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/trace"
)

func TestSummarize(t *testing.T) {
	var buf bytes.Buffer
	root := trace.NewWriter(&buf, "")

	a := root.WithSession("s-auth")
	a.EmitSessionStart("secure-authentication", "auth", 5)
	a.EmitValidationBlocked(3, nil, []string{"OTP must be exactly 6 digits"})
	a.EmitSessionSubmitted("AUTH-000001", time.Second)

	b := root.WithSession("s-report")
	b.EmitSessionStart("incident-report", "incident", 4)
	b.EmitEnrichment(trace.EventEnrichmentComplete, 1, map[string]any{"score": 82, "tier": "high"})
	b.EmitSessionAbandoned(3, "cancel")

	events, err := trace.ReadEvents(&buf)
	if err != nil {
		t.Fatal(err)
	}
	got := summarize(events)
	want := []sessionSummary{
		{ID: "s-auth", Wizard: "secure-authentication", Kind: "auth", Events: 3, Blocked: 1, Outcome: "submitted", RecordID: "AUTH-000001"},
		{ID: "s-report", Wizard: "incident-report", Kind: "incident", Events: 3, Outcome: "abandoned", Enrichment: "82 (high)"},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(sessionSummary{}, "Start", "End")); diff != "" {
		t.Errorf("summarize mismatch (-want +got):\n%s", diff)
	}

	var out bytes.Buffer
	printSummaries(&out, got)
	if !strings.Contains(out.String(), "s-auth  secure-authentication (auth)  submitted AUTH-000001") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "evidence 82 (high)") {
		t.Errorf("missing enrichment:\n%s", out.String())
	}
}

func TestSummarizeOpenSession(t *testing.T) {
	got := summarize([]trace.Event{{Type: trace.EventSessionStart, SessionID: "x", Data: map[string]any{"wizard": "w", "kind": "k"}}})
	if len(got) != 1 || got[0].Outcome != "open" {
		t.Errorf("got %+v", got)
	}
}
