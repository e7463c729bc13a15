package model

import (
	"errors"
	"fmt"
)

// Time is a simulated instant measured in clock ticks.
type Time int64

// ContainerID identifies a container for the whole simulation.
type ContainerID int64

// HeightClass is the size bucket of a container. Piles never mix classes.
type HeightClass int

// Window is the inclusive delivery window of a container.
type Window struct {
	Earliest Time `json:"earliest" yaml:"earliest"`
	Latest   Time `json:"latest" yaml:"latest"`
}

// Contains reports whether t lies inside the window.
func (w Window) Contains(t Time) bool {
	return w.Earliest <= t && t <= w.Latest
}

// Expired reports whether the window closed before t.
func (w Window) Expired(t Time) bool {
	return t > w.Latest
}

// Validate checks that the window is not inverted.
func (w Window) Validate() error {
	if w.Latest < w.Earliest {
		return fmt.Errorf("window [%d,%d] is inverted", w.Earliest, w.Latest)
	}
	return nil
}

// Container is an immutable cargo record.
type Container struct {
	ID      ContainerID `json:"id" yaml:"id"`
	Class   HeightClass `json:"class" yaml:"class"`
	Arrival Time        `json:"arrival" yaml:"arrival"`
	Window  Window      `json:"window" yaml:"window"`
	Price   int64       `json:"price" yaml:"price"`
}

// Sellable reports whether the container can be sold at t.
func (c Container) Sellable(t Time) bool { return c.Window.Contains(t) }

// Expired reports whether the container can only be discarded at t.
func (c Container) Expired(t Time) bool { return c.Window.Expired(t) }

// Actionable reports whether the container can leave the yard at t, either
// sold or discarded.
func (c Container) Actionable(t Time) bool { return c.Sellable(t) || c.Expired(t) }

// ReadyAt returns the first instant after now at which the container becomes
// actionable. Once actionable a container stays so (sellable, then expired),
// hence the second value is false when it already is.
func (c Container) ReadyAt(now Time) (Time, bool) {
	if now < c.Window.Earliest {
		return c.Window.Earliest, true
	}
	return 0, false
}

// ErrInvalidContainer is returned by Validate for malformed records.
var ErrInvalidContainer = errors.New("invalid container")

// Validate checks the container record.
func (c Container) Validate() error {
	if c.Class <= 0 {
		return fmt.Errorf("%w %d: height class must be positive", ErrInvalidContainer, c.ID)
	}
	if c.Price < 0 {
		return fmt.Errorf("%w %d: negative price", ErrInvalidContainer, c.ID)
	}
	if err := c.Window.Validate(); err != nil {
		return fmt.Errorf("%w %d: %v", ErrInvalidContainer, c.ID, err)
	}
	return nil
}

// Arrival is one event of the input stream. Deadline, when non zero, is the
// explicit end of the idle interval following the arrival.
type Arrival struct {
	Container Container `json:"container" yaml:"container"`
	Deadline  Time      `json:"deadline,omitempty" yaml:"deadline,omitempty"`
}
