// Package enrich derives a risk score from attached evidence.
//
// Analysis runs in the background. A Tracker owns at most one in-flight
// task per session: each trigger bumps a generation counter and cancels
// the previous task, and a completion is applied only if its generation is
// still current.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/form"
)

// Tier is the qualitative band of a score.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Thresholds for TierFor.
const (
	HighThreshold   = 80
	MediumThreshold = 60
)

// TierFor maps a score to its tier: >=80 high, >=60 medium, else low.
func TierFor(score int) Tier {
	switch {
	case score >= HighThreshold:
		return TierHigh
	case score >= MediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// Result is the outcome of one analysis.
type Result struct {
	Score       int       `json:"score"`
	Tier        Tier      `json:"tier"`
	Generation  uint64    `json:"generation"`
	CompletedAt time.Time `json:"completed_at"`
}

// Analyzer scores a set of evidence items. Implementations must honour
// ctx cancellation.
type Analyzer interface {
	Analyze(ctx context.Context, items []form.EvidenceItem) (Result, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, items []form.EvidenceItem) (Result, error)

// Analyze calls f.
func (f AnalyzerFunc) Analyze(ctx context.Context, items []form.EvidenceItem) (Result, error) {
	return f(ctx, items)
}

// Default simulation parameters.
const (
	DefaultDelay = 2 * time.Second
	DefaultMin   = 60
	DefaultMax   = 100
)

// Simulated waits Delay and then draws a score uniformly from [Min, Max].
// It stands in for a real analysis service.
type Simulated struct {
	Delay time.Duration
	Min   int
	Max   int
	// IntN returns a value in [0, n). Nil uses math/rand/v2.
	IntN func(n int) int
}

// NewSimulated returns a Simulated analyzer with the default 2s delay and
// 60..100 range.
func NewSimulated() *Simulated {
	return &Simulated{Delay: DefaultDelay, Min: DefaultMin, Max: DefaultMax}
}

// Analyze implements Analyzer.
func (s *Simulated) Analyze(ctx context.Context, items []form.EvidenceItem) (Result, error) {
	if len(items) == 0 {
		return Result{}, errors.New("no evidence to analyze")
	}
	if s.Max < s.Min {
		return Result{}, fmt.Errorf("invalid score range [%d,%d]", s.Min, s.Max)
	}
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	intN := s.IntN
	if intN == nil {
		intN = rand.IntN
	}
	score := s.Min + intN(s.Max-s.Min+1)
	return Result{Score: score, Tier: TierFor(score)}, nil
}

// State is the lifecycle state of a Tracker.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateFailed   State = "failed"
)

// Outcome reports how a background task ended. Stale outcomes were
// superseded by a newer trigger (or by Stop) and were not applied.
type Outcome struct {
	Generation uint64
	Result     *Result
	Err        error
	Stale      bool
}

// Tracker runs analyses for one session.
type Tracker struct {
	analyzer Analyzer
	onDone   func(Outcome)
	log      *slog.Logger
	clock    func() time.Time

	mu      sync.Mutex
	gen     uint64
	state   State
	result  *Result
	err     error
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

// NewTracker creates an idle tracker. onDone, if non-nil, is called from
// the task goroutine after each task ends, without any tracker lock held.
func NewTracker(a Analyzer, onDone func(Outcome), logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		analyzer: a,
		onDone:   onDone,
		log:      logger,
		clock:    time.Now,
		state:    StateIdle,
	}
}

// Trigger starts a new analysis of items, superseding any previous result
// or in-flight task. Returns the new generation, or 0 if nothing started.
func (t *Tracker) Trigger(items []form.EvidenceItem) uint64 {
	if len(items) == 0 {
		return 0
	}
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return 0
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	gen := t.gen
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.state = StateRunning
	t.result = nil
	t.err = nil
	t.wg.Add(1)
	t.mu.Unlock()

	batch := append([]form.EvidenceItem(nil), items...)
	t.log.Debug("enrichment started", "generation", gen, "items", len(batch))
	go func() {
		defer t.wg.Done()
		res, err := t.analyzer.Analyze(ctx, batch)
		t.complete(gen, res, err)
	}()
	return gen
}

func (t *Tracker) complete(gen uint64, res Result, err error) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		t.log.Debug("stale enrichment discarded", "generation", gen)
		t.notify(Outcome{Generation: gen, Stale: true})
		return
	}
	t.cancel = nil
	var out Outcome
	if err != nil {
		t.state = StateFailed
		t.err = err
		out = Outcome{Generation: gen, Err: err}
	} else {
		res.Generation = gen
		res.Tier = TierFor(res.Score)
		if res.CompletedAt.IsZero() {
			res.CompletedAt = t.clock()
		}
		t.state = StateComplete
		t.result = &res
		cp := res
		out = Outcome{Generation: gen, Result: &cp}
	}
	t.mu.Unlock()

	if out.Err != nil {
		t.log.Warn("enrichment failed", "generation", gen, "error", out.Err)
	} else {
		t.log.Info("enrichment complete", "generation", gen, "score", res.Score, "tier", res.Tier)
	}
	t.notify(out)
}

func (t *Tracker) notify(o Outcome) {
	if t.onDone != nil {
		t.onDone(o)
	}
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Result returns the current result, if the latest task completed.
func (t *Tracker) Result() (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.result == nil {
		return Result{}, false
	}
	return *t.result, true
}

// Err returns the failure of the latest task, if it failed.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Generation returns the generation of the latest trigger.
func (t *Tracker) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// Stop cancels any in-flight task and discards the result. Later
// triggers are ignored and late completions are dropped.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.stopped = true
	t.gen++
	t.result = nil
	t.err = nil
	t.state = StateIdle
}

// Wait blocks until every started task goroutine has returned.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
