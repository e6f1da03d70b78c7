package recorder

import (
	"errors"
	"testing"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/engine"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/enrich"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/form"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/trace"
)

func TestRecorder_CapturesCompletion(t *testing.T) {
	var forwarded engine.CompletionRecord
	rec := New(engine.ListenerFuncs{OnCompleted: func(r engine.CompletionRecord) { forwarded = r }})
	rec.SetSensitive([]string{"otp"})

	rec.Completed(engine.CompletionRecord{
		ID:     "AUTH-000042",
		Kind:   "auth",
		Fields: form.Values{"otp": "123456", "email": "a@b.in"},
	})

	got, ok := rec.Record()
	if !ok {
		t.Fatal("expected captured record")
	}
	if got.Fields["otp"] != trace.Redacted {
		t.Errorf("otp = %v, want redacted", got.Fields["otp"])
	}
	if got.Fields["email"] != "a@b.in" {
		t.Errorf("email = %v", got.Fields["email"])
	}
	if forwarded.Fields["otp"] != "123456" {
		t.Error("inner listener should receive the original record")
	}

	events := rec.Events()
	if len(events) != 1 || events[0].Type != "completed" || events[0].RecordID != "AUTH-000042" {
		t.Errorf("events = %+v", events)
	}
}

func TestRecorder_CapturesEnrichmentAndAbandon(t *testing.T) {
	rec := New(nil)
	rec.EnrichmentUpdated(enrich.Result{Score: 82, Tier: enrich.TierHigh, Generation: 1})
	rec.EnrichmentFailed(errors.New("scanner offline"))
	rec.Abandoned()

	events := rec.Events()
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Enrichment == nil || events[0].Enrichment.Score != 82 {
		t.Errorf("enrichment event = %+v", events[0])
	}
	if events[1].Error != "scanner offline" {
		t.Errorf("failure event = %+v", events[1])
	}
	if !rec.WasAbandoned() {
		t.Error("expected abandoned")
	}
	if _, ok := rec.Record(); ok {
		t.Error("abandoned session has no record")
	}
}
