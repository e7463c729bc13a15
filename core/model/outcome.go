package model

import (
	"fmt"
	"strings"
)

// Outcome is the terminal state of a container.
type Outcome int

const (
	OutcomeSold Outcome = iota + 1
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSold:
		return "sold"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "sold":
		*o = OutcomeSold
	case "discarded":
		*o = OutcomeDiscarded
	default:
		return fmt.Errorf("unknown outcome %q", string(b))
	}
	return nil
}

// TerminalEvent records how and when a container left the yard.
type TerminalEvent struct {
	ContainerID ContainerID `json:"container_id"`
	Class       HeightClass `json:"class"`
	Outcome     Outcome     `json:"outcome"`
	Time        Time        `json:"time"`
	Arrival     Time        `json:"arrival"`
	Price       int64       `json:"price"`
}

// Dwell returns the number of ticks the container spent in the yard.
func (e TerminalEvent) Dwell() Time { return e.Time - e.Arrival }

// ActionType is the kind of operation applied to the yard.
type ActionType string

const (
	ActionPlace   ActionType = "place"
	ActionMove    ActionType = "move"
	ActionSell    ActionType = "sell"
	ActionDiscard ActionType = "discard"
)

// Terminal reports whether the action removes the container from the yard.
func (a ActionType) Terminal() bool {
	return a == ActionSell || a == ActionDiscard
}
