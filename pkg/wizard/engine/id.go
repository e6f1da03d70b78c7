package engine

import (
	"fmt"
	"regexp"
	"sync"
	"time"
)

// RecordIDPattern matches identifiers produced by IDGenerator.
var RecordIDPattern = regexp.MustCompile(`^[A-Z]+-\d{6}$`)

// IDGenerator issues record identifiers of the form PREFIX-NNNNNN, where
// the digits are the low six decimal digits of the clock in milliseconds.
// Within one generator, successive identifiers are strictly increasing in
// their millisecond source, so two calls never collide even when the clock
// has not moved.
type IDGenerator struct {
	mu    sync.Mutex
	last  int64
	clock func() time.Time
}

// NewIDGenerator creates a generator reading the given clock; nil uses
// time.Now.
func NewIDGenerator(clock func() time.Time) *IDGenerator {
	if clock == nil {
		clock = time.Now
	}
	return &IDGenerator{clock: clock}
}

// Next returns a fresh identifier with the given prefix.
func (g *IDGenerator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.clock().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return fmt.Sprintf("%s-%06d", prefix, ms%1_000_000)
}

// defaultIDs is shared by sessions that do not supply their own generator.
var defaultIDs = NewIDGenerator(nil)
