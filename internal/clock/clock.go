package clock

import (
	"sync"
	"time"
)

// Clock supplies the current instant. Services take a Clock instead of
// calling time.Now so tests can drive time deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	mu   sync.Mutex
	last time.Time
}

// System returns a Clock backed by the wall clock. Now never goes
// backwards within a process, even across NTP adjustments.
func System() Clock {
	return &systemClock{}
}

func (c *systemClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	if now.Before(c.last) {
		return c.last
	}
	c.last = now
	return now
}

// Fake is a manually advanced Clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start.UTC()}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set jumps the fake clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}
