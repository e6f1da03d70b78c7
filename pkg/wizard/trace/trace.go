// Package trace implements the append-only JSONL audit trail of wizard
// sessions.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// EventType enumerates all session trace event types.
type EventType string

const (
	EventSessionStart       EventType = "session_start"
	EventFieldSet           EventType = "field_set"
	EventEvidenceAttached   EventType = "evidence_attached"
	EventEvidenceRemoved    EventType = "evidence_removed"
	EventStepAdvance        EventType = "step_advance"
	EventStepBack           EventType = "step_back"
	EventValidationBlocked  EventType = "validation_blocked"
	EventEnrichmentStart    EventType = "enrichment_start"
	EventEnrichmentComplete EventType = "enrichment_complete"
	EventEnrichmentFailed   EventType = "enrichment_failed"
	EventEnrichmentStale    EventType = "enrichment_stale"
	EventSessionSubmitted   EventType = "session_submitted"
	EventSessionAbandoned   EventType = "session_abandoned"
)

// Redacted replaces the values of sensitive fields in trace output.
const Redacted = "<REDACTED>"

// Event is a single trace event written to the JSONL stream.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// stream is the shared, serialized JSONL sink behind one or more writers.
type stream struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// Writer writes trace events to an append-only JSONL stream.
type Writer struct {
	out       *stream
	sessionID string

	mu        sync.Mutex
	sensitive map[string]bool
}

// NewWriter creates a trace writer that writes to the given io.Writer.
func NewWriter(w io.Writer, sessionID string) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{
		out:       &stream{enc: enc},
		sessionID: sessionID,
		sensitive: make(map[string]bool),
	}
}

// NewFileWriter creates a trace writer that appends to a JSONL file.
func NewFileWriter(path, sessionID string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	tw := NewWriter(f, sessionID)
	tw.out.closer = f
	return tw, nil
}

// WithSession returns a writer sharing the same stream but stamping events
// with a different session ID.
func (tw *Writer) WithSession(sessionID string) *Writer {
	return &Writer{
		out:       tw.out,
		sessionID: sessionID,
		sensitive: make(map[string]bool),
	}
}

// SetSensitive configures field names whose values are redacted.
func (tw *Writer) SetSensitive(fields []string) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.sensitive = make(map[string]bool, len(fields))
	for _, f := range fields {
		tw.sensitive[f] = true
	}
}

// Close closes the underlying file, if the writer owns one.
func (tw *Writer) Close() error {
	if tw.out.closer == nil {
		return nil
	}
	return tw.out.closer.Close()
}

// Emit writes a single trace event.
func (tw *Writer) Emit(eventType EventType, data map[string]any) error {
	evt := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		SessionID: tw.sessionID,
		Data:      data,
	}
	tw.out.mu.Lock()
	defer tw.out.mu.Unlock()
	return tw.out.enc.Encode(evt)
}

// EmitSessionStart emits a session_start event.
func (tw *Writer) EmitSessionStart(wizard, kind string, steps int) error {
	return tw.Emit(EventSessionStart, map[string]any{
		"wizard": wizard,
		"kind":   kind,
		"steps":  steps,
	})
}

// EmitFieldSet emits a field_set event, redacting sensitive values.
func (tw *Writer) EmitFieldSet(field string, value any) error {
	tw.mu.Lock()
	if tw.sensitive[field] {
		value = Redacted
	}
	tw.mu.Unlock()
	return tw.Emit(EventFieldSet, map[string]any{
		"field": field,
		"value": value,
	})
}

// EmitEvidenceAttached emits an evidence_attached event.
func (tw *Writer) EmitEvidenceAttached(field string, added, total int) error {
	return tw.Emit(EventEvidenceAttached, map[string]any{
		"field": field,
		"added": added,
		"total": total,
	})
}

// EmitEvidenceRemoved emits an evidence_removed event.
func (tw *Writer) EmitEvidenceRemoved(field, name string, total int) error {
	return tw.Emit(EventEvidenceRemoved, map[string]any{
		"field": field,
		"name":  name,
		"total": total,
	})
}

// EmitStepAdvance emits a step_advance event.
func (tw *Writer) EmitStepAdvance(from, to int, stepID string) error {
	return tw.Emit(EventStepAdvance, map[string]any{
		"from":    from,
		"to":      to,
		"step_id": stepID,
	})
}

// EmitStepBack emits a step_back event.
func (tw *Writer) EmitStepBack(from, to int, stepID string) error {
	return tw.Emit(EventStepBack, map[string]any{
		"from":    from,
		"to":      to,
		"step_id": stepID,
	})
}

// EmitValidationBlocked emits a validation_blocked event.
func (tw *Writer) EmitValidationBlocked(position int, missing, failedRules []string) error {
	data := map[string]any{"position": position}
	if len(missing) > 0 {
		data["missing"] = missing
	}
	if len(failedRules) > 0 {
		data["failed_rules"] = failedRules
	}
	return tw.Emit(EventValidationBlocked, data)
}

// EmitEnrichment emits one of the enrichment_* events.
func (tw *Writer) EmitEnrichment(eventType EventType, generation uint64, extra map[string]any) error {
	data := map[string]any{"generation": generation}
	for k, v := range extra {
		data[k] = v
	}
	return tw.Emit(eventType, data)
}

// EmitSessionSubmitted emits a session_submitted event.
func (tw *Writer) EmitSessionSubmitted(recordID string, duration time.Duration) error {
	return tw.Emit(EventSessionSubmitted, map[string]any{
		"record_id": recordID,
		"duration":  duration.String(),
	})
}

// EmitSessionAbandoned emits a session_abandoned event.
func (tw *Writer) EmitSessionAbandoned(position int, reason string) error {
	return tw.Emit(EventSessionAbandoned, map[string]any{
		"position": position,
		"reason":   reason,
	})
}

// ReadEvents decodes a JSONL trace stream.
func ReadEvents(r io.Reader) ([]Event, error) {
	var events []Event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var evt Event
		if err := json.Unmarshal(sc.Bytes(), &evt); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, evt)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return events, nil
}
