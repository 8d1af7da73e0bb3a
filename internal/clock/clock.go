// Package clock abstracts the wall clock so backup names and cache slots can be
// produced deterministically in tests.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real implements Clock using the system time.
type Real struct{}

// Now returns the current system time.
func (Real) Now() time.Time {
	return time.Now()
}

// Fake implements Clock with a manually controlled time.
type Fake struct {
	current time.Time
}

// NewFake creates a Fake clock set to t.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

// Now returns the fixed time.
func (c *Fake) Now() time.Time {
	return c.current
}

// Set updates the fixed time.
func (c *Fake) Set(t time.Time) {
	c.current = t
}

// Advance moves the fixed time forward by d.
func (c *Fake) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
