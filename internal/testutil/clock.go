package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// StubClock returns a fixed time.
type StubClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewStubClock creates a StubClock stopped at t.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{t: t}
}

// FixedClock returns a StubClock stopped at 2026-01-15 10:30:00 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	t := c.t
	c.mu.Unlock()
	return t
}

// StubIDGenerator hands out "op-1", "op-2", ...
type StubIDGenerator struct {
	n atomic.Int64
}

func NewStubIDGenerator() *StubIDGenerator {
	return new(StubIDGenerator)
}

func (g *StubIDGenerator) New() string {
	return fmt.Sprintf("op-%d", g.n.Add(1))
}
