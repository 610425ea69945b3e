package history

import (
	"sort"
	"sync"
	"time"
)

// Debounce bounds for coalesced commits.
const (
	DefaultDelay = 750 * time.Millisecond
	MinDelay     = 500 * time.Millisecond
	MaxDelay     = 1000 * time.Millisecond
)

// ClampDelay keeps d inside [MinDelay, MaxDelay]; zero selects DefaultDelay.
func ClampDelay(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultDelay
	case d < MinDelay:
		return MinDelay
	case d > MaxDelay:
		return MaxDelay
	}
	return d
}

// Timer is the cancel side of a scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed callbacks. Tests swap in a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock fires callbacks on runtime timers.
var SystemClock Clock = realClock{}

// Key names one coalescing stream: an entity and the field being edited.
type Key struct {
	ElementID string
	Field     string
}

type pending struct {
	timer Timer
	fire  func()
	gen   uint64
}

// Coalescer defers a commit until edits to the same key pause for the
// delay. Each new edit cancels the key's pending callback, so a burst yields
// at most one trailing call.
type Coalescer struct {
	mu      sync.Mutex
	clock   Clock
	delay   time.Duration
	pending map[Key]*pending
	gen     uint64
}

// NewCoalescer returns a coalescer using clock (nil for SystemClock).
func NewCoalescer(clock Clock, delay time.Duration) *Coalescer {
	if clock == nil {
		clock = SystemClock
	}
	return &Coalescer{clock: clock, delay: ClampDelay(delay), pending: map[Key]*pending{}}
}

// Delay reports the debounce delay.
func (c *Coalescer) Delay() time.Duration { return c.delay }

// Schedule arms fn for key, replacing any callback already pending for it.
func (c *Coalescer) Schedule(key Key, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pending[key]; ok {
		p.timer.Stop()
	}
	c.gen++
	gen := c.gen
	p := &pending{fire: fn, gen: gen}
	p.timer = c.clock.AfterFunc(c.delay, func() { c.fire(key, gen) })
	c.pending[key] = p
}

func (c *Coalescer) fire(key Key, gen uint64) {
	c.mu.Lock()
	p, ok := c.pending[key]
	if !ok || p.gen != gen {
		// Superseded or already flushed.
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	c.mu.Unlock()
	p.fire()
}

// Pending reports whether key has a callback waiting.
func (c *Coalescer) Pending(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[key]
	return ok
}

// Len is the number of keys with a callback waiting.
func (c *Coalescer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Flush runs every pending callback now, in scheduling order, and reports
// how many ran.
func (c *Coalescer) Flush() int {
	c.mu.Lock()
	ps := make([]*pending, 0, len(c.pending))
	for k, p := range c.pending {
		p.timer.Stop()
		ps = append(ps, p)
		delete(c.pending, k)
	}
	c.mu.Unlock()
	sort.Slice(ps, func(i, j int) bool { return ps[i].gen < ps[j].gen })
	for _, p := range ps {
		p.fire()
	}
	return len(ps)
}

// Cancel drops every pending callback without running it.
func (c *Coalescer) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, k)
	}
}
