package clock

import (
	"sync"
	"time"
)

// Clock is the time source for time-based commands.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

type system struct{}

func (system) Now() time.Time {
	return time.Now()
}

func (system) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// System is the wall clock.
var System Clock = system{}

// Manual is a clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start ...time.Time) *Manual {
	m := &Manual{now: time.Unix(0, 0)}
	if len(start) > 0 {
		m.now = start[0]
	}
	return m
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Since(t time.Time) time.Duration {
	return m.Now().Sub(t)
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Or returns c, or System when c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return System
	}
	return c
}
