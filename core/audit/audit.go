// Package audit replays a recorded action journal on a fresh storage unit
// and checks that every action was legal when it happened.
package audit

import (
	"errors"
	"fmt"

	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
)

// ErrViolation is returned for the first action that breaks a yard rule.
var ErrViolation = errors.New("journal violation")

// Options tunes the replay.
type Options struct {
	// StepCost, when positive, is the minimal gap between two timed actions.
	StepCost model.Time
}

// Result summarises a journal that replayed cleanly.
type Result struct {
	Actions   int
	Placed    int
	Moves     int
	Sold      int
	Discarded int
	Remaining int
	Cash      int64
	End       model.Time
	Occupancy storage.Snapshot
}

// Verify replays evs in order. containers, when not nil, is the reference
// registry: every action must name a known container and carry its record.
// The journal of a single run is expected; callers filter by run ID.
func Verify(evs []events.ActionEvent, containers map[model.ContainerID]model.Container, layout storage.Layout, opts Options) (Result, error) {
	u := storage.NewUnit(layout)
	var (
		res      Result
		last     model.Time
		lastStep model.Time
		stepped  bool
	)
	for i, ev := range evs {
		fail := func(format string, args ...any) error {
			return fmt.Errorf("%w: entry %d (seq %d, t=%d, container %d): %s",
				ErrViolation, i+1, ev.Seq, ev.Time, ev.Container.ID, fmt.Sprintf(format, args...))
		}
		c := ev.Container
		if containers != nil {
			ref, ok := containers[c.ID]
			if !ok {
				return res, fail("unknown container")
			}
			if c != ref {
				return res, fail("record differs from the registry")
			}
		}
		if ev.Time < last {
			return res, fail("time goes back from %d", last)
		}
		last = ev.Time

		if ev.Type != model.ActionPlace {
			if stepped && opts.StepCost > 0 && ev.Time < lastStep+opts.StepCost {
				return res, fail("starts before the previous action at %d completed", lastStep)
			}
			stepped, lastStep = true, ev.Time
		}

		switch ev.Type {
		case model.ActionPlace:
			if ev.To == nil {
				return res, fail("placement without a pile")
			}
			if ev.Time < c.Arrival {
				return res, fail("placed before its arrival at %d", c.Arrival)
			}
			if err := u.Place(c, *ev.To); err != nil {
				return res, fail("%v", err)
			}
			res.Placed++
		case model.ActionMove:
			if ev.To == nil {
				return res, fail("move without a destination")
			}
			from, err := popTop(u, ev)
			if err != nil {
				return res, fail("%v", err)
			}
			if from == *ev.To {
				return res, fail("moved onto its own pile %s", from)
			}
			if err := u.Place(c, *ev.To); err != nil {
				return res, fail("%v", err)
			}
			res.Moves++
		case model.ActionSell:
			if !c.Sellable(ev.Time) {
				return res, fail("sold outside its window [%d,%d]", c.Window.Earliest, c.Window.Latest)
			}
			if _, err := popTop(u, ev); err != nil {
				return res, fail("%v", err)
			}
			if err := u.Sell(c); err != nil {
				return res, fail("%v", err)
			}
		case model.ActionDiscard:
			if !c.Expired(ev.Time) {
				return res, fail("discarded before its window closed at %d", c.Window.Latest)
			}
			if _, err := popTop(u, ev); err != nil {
				return res, fail("%v", err)
			}
			if err := u.Discard(c); err != nil {
				return res, fail("%v", err)
			}
		default:
			return res, fail("unknown action %q", ev.Type)
		}
		if ev.Cash != u.Cash() {
			return res, fail("cash %d, ledger has %d", ev.Cash, u.Cash())
		}
		res.Actions++
	}

	res.Sold = u.Sold()
	res.Discarded = u.Discarded()
	res.Remaining = u.Len()
	res.Cash = u.Cash()
	res.End = last
	res.Occupancy = u.Snapshot()
	if res.Sold+res.Discarded+res.Remaining != res.Placed {
		return res, fmt.Errorf("%w: %d placed but %d sold, %d discarded and %d stacked",
			ErrViolation, res.Placed, res.Sold, res.Discarded, res.Remaining)
	}
	return res, nil
}

// popTop removes the container of ev from the top of its pile. A recorded
// source pile must match where the container actually is.
func popTop(u *storage.Unit, ev events.ActionEvent) (storage.PileKey, error) {
	at, ok := u.Location(ev.Container.ID)
	if !ok {
		return at, errors.New("container is not stacked")
	}
	if ev.From != nil && *ev.From != at {
		return at, fmt.Errorf("recorded on pile %s but stacked on %s", ev.From, at)
	}
	top, err := u.PeekTop(at)
	if err != nil {
		return at, err
	}
	if top.ID != ev.Container.ID {
		return at, fmt.Errorf("buried under container %d on pile %s", top.ID, at)
	}
	_, err = u.PopTop(at)
	return at, err
}
