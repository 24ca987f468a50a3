package core

import (
	"strconv"
	"sync"
	"time"
)

// Record is implemented by Income, Expense and Investment through the
// embedded Transaction.
type Record interface {
	Base() Transaction
}

// IDGenerator issues millisecond-timestamp ids. Two ids requested in the
// same millisecond never collide: the generator moves to the next unused
// value instead.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator returns a generator backed by the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// NewIDGeneratorWithClock is used by tests to pin time.
func NewIDGeneratorWithClock(now func() time.Time) *IDGenerator {
	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.now().UnixMilli()
	if v <= g.last {
		v = g.last + 1
	}
	g.last = v
	return strconv.FormatInt(v, 10)
}
