// Package engine implements the guided workflow controller: one Session
// walks a wizard definition step by step, gating forward moves on the
// validation gate, running evidence enrichment in the background, and
// emitting a single completion record on submission.
package engine

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aayaan07/quantum-kavach/pkg/logging"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/enrich"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/eval"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/form"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/gate"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
	"github.com/aayaan07/quantum-kavach/pkg/wizard/trace"
)

var (
	ErrSessionClosed    = errors.New("session is closed")
	ErrFieldUnknown     = errors.New("unknown field")
	ErrNotEvidenceField = errors.New("wizard has no evidence field")
	ErrEvidenceIndex    = errors.New("evidence index out of range")
)

// GenerateSessionID creates a session ID in format YYYYMMDDTHHmmss-xxxx.
func GenerateSessionID() string {
	ts := time.Now().Format("20060102T150405")
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("%s-%x", ts, suffix)
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusSubmitted Status = "submitted"
	StatusAbandoned Status = "abandoned"
)

// TransitionKind describes what a navigation call did.
type TransitionKind string

const (
	TransitionAdvanced  TransitionKind = "advanced"
	TransitionBlocked   TransitionKind = "blocked"
	TransitionSubmitted TransitionKind = "submitted"
	TransitionRetreated TransitionKind = "retreated"
	TransitionAbandoned TransitionKind = "abandoned"
	TransitionNoop      TransitionKind = "noop"
)

// Transition is the result of Next, Back or Cancel.
type Transition struct {
	Kind     TransitionKind `json:"kind"`
	From     int            `json:"from"`
	To       int            `json:"to"`
	Check    gate.Result    `json:"check"`
	RecordID string         `json:"record_id,omitempty"`
}

// CompletionRecord is the immutable output of a submitted session.
type CompletionRecord struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"session_id"`
	Wizard      string         `json:"wizard"`
	Kind        string         `json:"kind"`
	Role        string         `json:"role,omitempty"`
	Fields      form.Values    `json:"fields"`
	Enrichment  *enrich.Result `json:"enrichment,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// Listener receives terminal and enrichment events. Calls are made without
// any session lock held, so a listener may call back into the session.
// Enrichment callbacks arrive on a background goroutine.
type Listener interface {
	Completed(rec CompletionRecord)
	Abandoned()
	EnrichmentUpdated(res enrich.Result)
	EnrichmentFailed(err error)
}

// ListenerFuncs adapts optional callbacks to Listener.
type ListenerFuncs struct {
	OnCompleted         func(CompletionRecord)
	OnAbandoned         func()
	OnEnrichmentUpdated func(enrich.Result)
	OnEnrichmentFailed  func(error)
}

func (l ListenerFuncs) Completed(rec CompletionRecord) {
	if l.OnCompleted != nil {
		l.OnCompleted(rec)
	}
}

func (l ListenerFuncs) Abandoned() {
	if l.OnAbandoned != nil {
		l.OnAbandoned()
	}
}

func (l ListenerFuncs) EnrichmentUpdated(res enrich.Result) {
	if l.OnEnrichmentUpdated != nil {
		l.OnEnrichmentUpdated(res)
	}
}

func (l ListenerFuncs) EnrichmentFailed(err error) {
	if l.OnEnrichmentFailed != nil {
		l.OnEnrichmentFailed(err)
	}
}

// Config configures a session.
type Config struct {
	ID       string           // session ID; generated when empty
	Role     string           // declared portal role, carried into the record
	Analyzer enrich.Analyzer  // nil uses enrich.NewSimulated()
	Listener Listener         // nil discards events
	Trace    *trace.Writer    // optional audit trail
	Logger   *slog.Logger     // nil uses a component logger
	Clock    func() time.Time // nil uses time.Now
	IDs      *IDGenerator     // nil uses a process-wide generator
}

// Session is one run of a wizard. Form state is owned exclusively by the
// session; collaborators read snapshots.
type Session struct {
	id        string
	wiz       *schema.Wizard
	role      string
	listener  Listener
	trace     *trace.Writer
	log       *slog.Logger
	clock     func() time.Time
	ids       *IDGenerator
	startedAt time.Time

	mu      sync.Mutex
	store   *form.Store
	pos     int
	status  Status
	tracker *enrich.Tracker
}

// NewSession starts a session at position 1.
func NewSession(w *schema.Wizard, cfg Config) (*Session, error) {
	if w == nil {
		return nil, errors.New("nil wizard")
	}
	if w.Total() < 1 {
		return nil, fmt.Errorf("wizard %q has no steps", w.Meta.Name)
	}

	id := cfg.ID
	if id == "" {
		id = GenerateSessionID()
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New("engine")
	}
	log = log.With("session", id, "wizard", w.Meta.Kind)
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := cfg.IDs
	if ids == nil {
		ids = defaultIDs
	}
	listener := cfg.Listener
	if listener == nil {
		listener = ListenerFuncs{}
	}
	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = enrich.NewSimulated()
	}

	s := &Session{
		id:        id,
		wiz:       w,
		role:      cfg.Role,
		listener:  listener,
		trace:     cfg.Trace,
		log:       log,
		clock:     clock,
		ids:       ids,
		startedAt: clock(),
		store:     form.NewStore(),
		pos:       1,
		status:    StatusActive,
	}
	for _, f := range w.Fields {
		s.store.Set(f.Name, zeroValue(f.Type))
	}
	s.tracker = enrich.NewTracker(analyzer, s.onEnrichment, log)

	if s.trace != nil {
		s.trace.SetSensitive(w.SensitiveFields())
		s.trace.EmitSessionStart(w.Meta.Name, w.Meta.Kind, w.Total())
	}
	log.Info("session started", "steps", w.Total())
	return s, nil
}

func zeroValue(t schema.FieldType) any {
	switch t {
	case schema.FieldBool:
		return false
	case schema.FieldEvidence:
		return []form.EvidenceItem{}
	default:
		return ""
	}
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Wizard returns the definition driving this session.
func (s *Session) Wizard() *schema.Wizard { return s.wiz }

// Role returns the declared role.
func (s *Session) Role() string { return s.role }

// Total returns the step count N.
func (s *Session) Total() int { return s.wiz.Total() }

// Status returns the lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Position returns the current 1-based step index.
func (s *Session) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Progress returns position / N.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.pos) / float64(s.wiz.Total())
}

// Current returns the step at the current position.
func (s *Session) Current() *schema.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, _ := s.wiz.StepAt(s.pos)
	return step
}

// Values returns a snapshot of the form state. It is empty once the
// session has ended.
func (s *Session) Values() form.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Check evaluates the gate for the current step.
func (s *Session) Check() gate.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkLocked()
}

func (s *Session) checkLocked() gate.Result {
	if s.status != StatusActive {
		return gate.Result{}
	}
	step, _ := s.wiz.StepAt(s.pos)
	return gate.Check(step, s.store.Snapshot())
}

// CanAdvance reports whether Next would move forward or submit.
func (s *Session) CanAdvance() bool {
	return s.Check().Allowed
}

// ActiveBranches returns the current step's branches whose condition holds.
func (s *Session) ActiveBranches() []schema.Branch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeBranchesLocked()
}

func (s *Session) activeBranchesLocked() []schema.Branch {
	step, ok := s.wiz.StepAt(s.pos)
	if !ok || s.status != StatusActive {
		return nil
	}
	env := map[string]any(s.store.Snapshot())
	var out []schema.Branch
	for _, b := range step.Branches {
		ok, err := eval.EvalBool(b.When, env)
		if err != nil {
			s.log.Debug("branch condition error", "branch", b.ID, "error", err)
			continue
		}
		if ok {
			out = append(out, b)
		}
	}
	return out
}

// Enrichment returns the current enrichment result, if any.
func (s *Session) Enrichment() (enrich.Result, bool) {
	return s.tracker.Result()
}

// EnrichmentState returns the enrichment task state.
func (s *Session) EnrichmentState() enrich.State {
	return s.tracker.State()
}

// Wait blocks until background enrichment goroutines have returned.
func (s *Session) Wait() {
	s.tracker.Wait()
}

// SetField replaces a field's value. Values are not validated here; the
// gate judges them. Setting the evidence field to a longer item list
// triggers enrichment.
func (s *Session) SetField(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return ErrSessionClosed
	}
	fd, ok := s.wiz.Field(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrFieldUnknown, name)
	}

	if fd.Type == schema.FieldEvidence {
		if items, isItems := value.([]form.EvidenceItem); isItems {
			prev := len(s.store.Evidence(name))
			s.store.Set(name, append([]form.EvidenceItem(nil), items...))
			if s.trace != nil {
				s.trace.EmitEvidenceAttached(name, max(len(items)-prev, 0), len(items))
			}
			if len(items) > prev {
				s.triggerLocked(items)
			}
			return nil
		}
	}

	s.store.Set(name, value)
	if s.trace != nil {
		s.trace.EmitFieldSet(name, value)
	}
	return nil
}

// Attach appends evidence items and triggers enrichment over the full
// evidence list. Returns the number of items attached.
func (s *Session) Attach(items ...form.EvidenceItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return 0, ErrSessionClosed
	}
	field := s.wiz.EvidenceField()
	if field == "" {
		return 0, ErrNotEvidenceField
	}
	n := s.store.Attach(field, items...)
	if n == 0 {
		return 0, nil
	}
	all := s.store.Evidence(field)
	if s.trace != nil {
		s.trace.EmitEvidenceAttached(field, n, len(all))
	}
	s.triggerLocked(all)
	return n, nil
}

// RemoveEvidence drops one attached item. Enrichment is not rerun.
func (s *Session) RemoveEvidence(index int) (form.EvidenceItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return form.EvidenceItem{}, ErrSessionClosed
	}
	field := s.wiz.EvidenceField()
	if field == "" {
		return form.EvidenceItem{}, ErrNotEvidenceField
	}
	removed, err := s.store.RemoveEvidence(field, index)
	if err != nil {
		return form.EvidenceItem{}, fmt.Errorf("%w: %v", ErrEvidenceIndex, err)
	}
	if s.trace != nil {
		s.trace.EmitEvidenceRemoved(field, removed.Name, len(s.store.Evidence(field)))
	}
	return removed, nil
}

func (s *Session) triggerLocked(items []form.EvidenceItem) {
	gen := s.tracker.Trigger(items)
	if gen == 0 {
		return
	}
	if s.trace != nil {
		s.trace.EmitEnrichment(trace.EventEnrichmentStart, gen, map[string]any{"items": len(items)})
	}
}

// onEnrichment receives tracker outcomes on the task goroutine.
// Nothing is traced or reported once the session has ended.
func (s *Session) onEnrichment(o enrich.Outcome) {
	if s.Status() != StatusActive {
		return
	}
	if o.Stale {
		if s.trace != nil {
			s.trace.EmitEnrichment(trace.EventEnrichmentStale, o.Generation, nil)
		}
		return
	}
	if o.Err != nil {
		if s.trace != nil {
			s.trace.EmitEnrichment(trace.EventEnrichmentFailed, o.Generation, map[string]any{"error": o.Err.Error()})
		}
		s.listener.EnrichmentFailed(o.Err)
		return
	}
	if s.trace != nil {
		s.trace.EmitEnrichment(trace.EventEnrichmentComplete, o.Generation, map[string]any{
			"score": o.Result.Score,
			"tier":  string(o.Result.Tier),
		})
	}
	s.listener.EnrichmentUpdated(*o.Result)
}

// Next moves forward one step if the gate allows it. At the last step it
// submits instead: the completion record is built, the session ends, and
// the listener receives the record exactly once. Once the session has
// ended Next is a no-op.
func (s *Session) Next() Transition {
	s.mu.Lock()
	if s.status != StatusActive {
		pos := s.pos
		s.mu.Unlock()
		return Transition{Kind: TransitionNoop, From: pos, To: pos}
	}

	from := s.pos
	check := s.checkLocked()
	if !check.Allowed {
		if s.trace != nil {
			s.trace.EmitValidationBlocked(from, check.Missing, check.FailedRules)
		}
		s.mu.Unlock()
		s.log.Debug("advance blocked", "position", from, "missing", check.Missing, "failed_rules", check.FailedRules)
		return Transition{Kind: TransitionBlocked, From: from, To: from, Check: check}
	}

	if from < s.wiz.Total() {
		s.pos = from + 1
		if s.trace != nil {
			step, _ := s.wiz.StepAt(s.pos)
			s.trace.EmitStepAdvance(from, s.pos, step.ID)
		}
		s.mu.Unlock()
		return Transition{Kind: TransitionAdvanced, From: from, To: from + 1, Check: check}
	}

	rec := s.buildRecordLocked()
	s.status = StatusSubmitted
	s.tracker.Stop()
	s.store.Clear()
	if s.trace != nil {
		s.trace.EmitSessionSubmitted(rec.ID, rec.SubmittedAt.Sub(s.startedAt))
	}
	s.mu.Unlock()

	s.log.Info("session submitted", "record_id", rec.ID)
	s.listener.Completed(rec)
	return Transition{Kind: TransitionSubmitted, From: from, To: from, Check: check, RecordID: rec.ID}
}

func (s *Session) buildRecordLocked() CompletionRecord {
	rec := CompletionRecord{
		ID:          s.ids.Next(s.wiz.Meta.IDPrefix),
		SessionID:   s.id,
		Wizard:      s.wiz.Meta.Name,
		Kind:        s.wiz.Meta.Kind,
		Role:        s.role,
		Fields:      s.store.Snapshot(),
		SubmittedAt: s.clock(),
	}
	if res, ok := s.tracker.Result(); ok {
		rec.Enrichment = &res
	}
	return rec
}

// Back moves to the previous step without validation. From step 1 the
// session is abandoned: form state is discarded, enrichment is cancelled,
// and the listener is told.
func (s *Session) Back() Transition {
	s.mu.Lock()
	if s.status != StatusActive {
		pos := s.pos
		s.mu.Unlock()
		return Transition{Kind: TransitionNoop, From: pos, To: pos}
	}
	from := s.pos
	if from > 1 {
		s.pos = from - 1
		if s.trace != nil {
			step, _ := s.wiz.StepAt(s.pos)
			s.trace.EmitStepBack(from, s.pos, step.ID)
		}
		s.mu.Unlock()
		return Transition{Kind: TransitionRetreated, From: from, To: from - 1}
	}
	return s.abandonLocked("back")
}

// Cancel abandons the session from any position.
func (s *Session) Cancel() Transition {
	s.mu.Lock()
	if s.status != StatusActive {
		pos := s.pos
		s.mu.Unlock()
		return Transition{Kind: TransitionNoop, From: pos, To: pos}
	}
	return s.abandonLocked("cancel")
}

// abandonLocked tears the session down. Called with s.mu held; releases it.
func (s *Session) abandonLocked(reason string) Transition {
	from := s.pos
	s.status = StatusAbandoned
	s.tracker.Stop()
	s.store.Clear()
	s.pos = 1
	if s.trace != nil {
		s.trace.EmitSessionAbandoned(from, reason)
	}
	s.mu.Unlock()

	s.log.Info("session abandoned", "position", from, "reason", reason)
	s.listener.Abandoned()
	return Transition{Kind: TransitionAbandoned, From: from, To: 1}
}

// View is a consistent snapshot of a session for presentation layers.
type View struct {
	SessionID       string          `json:"session_id"`
	Wizard          string          `json:"wizard"`
	Kind            string          `json:"kind"`
	Role            string          `json:"role,omitempty"`
	Status          Status          `json:"status"`
	Position        int             `json:"position"`
	Total           int             `json:"total"`
	Progress        float64         `json:"progress"`
	StepID          string          `json:"step_id"`
	StepTitle       string          `json:"step_title"`
	Gate            gate.Result     `json:"gate"`
	Fields          form.Values     `json:"fields"`
	Branches        []schema.Branch `json:"branches,omitempty"`
	EnrichmentState enrich.State    `json:"enrichment_state"`
	Enrichment      *enrich.Result  `json:"enrichment,omitempty"`
}

// View returns a snapshot of the session taken under one lock.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		SessionID:       s.id,
		Wizard:          s.wiz.Meta.Name,
		Kind:            s.wiz.Meta.Kind,
		Role:            s.role,
		Status:          s.status,
		Position:        s.pos,
		Total:           s.wiz.Total(),
		Progress:        float64(s.pos) / float64(s.wiz.Total()),
		Gate:            s.checkLocked(),
		Fields:          s.store.Snapshot(),
		Branches:        s.activeBranchesLocked(),
		EnrichmentState: s.tracker.State(),
	}
	if step, ok := s.wiz.StepAt(s.pos); ok {
		v.StepID = step.ID
		v.StepTitle = step.Title
	}
	if res, ok := s.tracker.Result(); ok {
		v.Enrichment = &res
	}
	return v
}
