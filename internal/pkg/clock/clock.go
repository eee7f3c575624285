// Package clock supplies the current instant in the reference timezone.
// Every shift timestamp and duration is computed from it so results do not
// depend on the host's local zone.
package clock

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // the reference zone must resolve on hosts without zoneinfo
)

// DefaultTimezone is the zone the bot has always reported shifts in.
const DefaultTimezone = "Europe/Moscow"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// System reads the wall clock.
type System struct {
	loc *time.Location
}

// New returns a System clock pinned to loc.
func New(loc *time.Location) *System {
	if loc == nil {
		loc = time.UTC
	}
	return &System{loc: loc}
}

// Load resolves name (e.g. "Europe/Moscow") and returns a clock for it.
// An empty name selects DefaultTimezone.
func Load(name string) (*System, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("clock: load timezone %q: %w", name, err)
	}
	return New(loc), nil
}

// Now returns the current instant in the reference zone, whole seconds only.
func (c *System) Now() time.Time {
	return time.Now().In(c.loc).Truncate(time.Second)
}

func (c *System) Location() *time.Location { return c.loc }

// Fixed is a manually advanced clock for tests and tooling.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.Truncate(time.Second)}
}

func (c *Fixed) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Fixed) Location() *time.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Location()
}

// Set moves the clock to t.
func (c *Fixed) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.Truncate(time.Second)
}

// Advance moves the clock forward by d.
func (c *Fixed) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d).Truncate(time.Second)
}
