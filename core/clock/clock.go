// Package clock provides the monotonic simulated clock shared by the event
// driver and the strategies of one run.
package clock

import (
	"errors"
	"fmt"

	"github.com/kilianp07/yard/core/model"
)

// ErrBackwards is returned when a caller tries to move the clock into the past.
var ErrBackwards = errors.New("clock cannot move backwards")

// Clock is a non-decreasing tick counter. It is not safe for concurrent use.
type Clock struct {
	now model.Time
}

// New returns a clock positioned at start.
func New(start model.Time) *Clock { return &Clock{now: start} }

// Now returns the current simulated instant.
func (c *Clock) Now() model.Time { return c.now }

// AdvanceTo moves the clock to t. Moving to the current instant is a no-op.
func (c *Clock) AdvanceTo(t model.Time) error {
	if t < c.now {
		return fmt.Errorf("%w: %d < %d", ErrBackwards, t, c.now)
	}
	c.now = t
	return nil
}

// Tick advances the clock by d ticks and returns the instant before the move.
func (c *Clock) Tick(d model.Time) model.Time {
	start := c.now
	if d > 0 {
		c.now += d
	}
	return start
}
