// Package recorder captures the events a wizard session reports to its
// listener, for collaborators that poll rather than subscribe.
package recorder

import (
	"sync"
	"time"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/engine"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/enrich"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/form"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/trace"
)

// CapturedEvent records a single listener callback.
type CapturedEvent struct {
	Type       string         `json:"type"` // completed, abandoned, enrichment_updated, enrichment_failed
	At         time.Time      `json:"at"`
	RecordID   string         `json:"record_id,omitempty"`
	Enrichment *enrich.Result `json:"enrichment,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Recorder wraps an engine listener and captures every event it sees.
// Captured completion records have sensitive field values redacted; the
// wrapped listener still receives the original record.
type Recorder struct {
	inner engine.Listener

	mu        sync.Mutex
	events    []CapturedEvent
	record    *engine.CompletionRecord
	abandoned bool
	sensitive []string // field names whose values are redacted
}

// New creates a recording wrapper around an existing listener. inner may
// be nil.
func New(inner engine.Listener) *Recorder {
	if inner == nil {
		inner = engine.ListenerFuncs{}
	}
	return &Recorder{inner: inner}
}

// SetSensitive configures field names whose values are redacted in
// captured records.
func (r *Recorder) SetSensitive(fields []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sensitive = append([]string(nil), fields...)
}

// Completed captures the record and delegates.
func (r *Recorder) Completed(rec engine.CompletionRecord) {
	r.mu.Lock()
	captured := rec
	captured.Fields = r.redact(rec.Fields)
	r.record = &captured
	r.events = append(r.events, CapturedEvent{Type: "completed", At: time.Now(), RecordID: rec.ID})
	r.mu.Unlock()
	r.inner.Completed(rec)
}

// Abandoned captures the abandonment and delegates.
func (r *Recorder) Abandoned() {
	r.mu.Lock()
	r.abandoned = true
	r.events = append(r.events, CapturedEvent{Type: "abandoned", At: time.Now()})
	r.mu.Unlock()
	r.inner.Abandoned()
}

// EnrichmentUpdated captures the result and delegates.
func (r *Recorder) EnrichmentUpdated(res enrich.Result) {
	r.mu.Lock()
	cp := res
	r.events = append(r.events, CapturedEvent{Type: "enrichment_updated", At: time.Now(), Enrichment: &cp})
	r.mu.Unlock()
	r.inner.EnrichmentUpdated(res)
}

// EnrichmentFailed captures the failure and delegates.
func (r *Recorder) EnrichmentFailed(err error) {
	r.mu.Lock()
	r.events = append(r.events, CapturedEvent{Type: "enrichment_failed", At: time.Now(), Error: err.Error()})
	r.mu.Unlock()
	r.inner.EnrichmentFailed(err)
}

// Events returns a copy of the captured events.
func (r *Recorder) Events() []CapturedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CapturedEvent(nil), r.events...)
}

// Record returns the redacted completion record, if the session submitted.
func (r *Recorder) Record() (engine.CompletionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.record == nil {
		return engine.CompletionRecord{}, false
	}
	return *r.record, true
}

// WasAbandoned reports whether the session was abandoned.
func (r *Recorder) WasAbandoned() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.abandoned
}

// redact replaces sensitive values with <REDACTED>.
func (r *Recorder) redact(vals form.Values) form.Values {
	out := vals.Clone()
	for _, name := range r.sensitive {
		if _, ok := out[name]; ok {
			out[name] = trace.Redacted
		}
	}
	return out
}
