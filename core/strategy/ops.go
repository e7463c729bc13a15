package strategy

import (
	"errors"
	"fmt"

	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
)

// errNotActionable is returned by release when the top container can be
// neither sold nor discarded yet. The container is back on its pile.
var errNotActionable = errors.New("top container not actionable")

func (e *Env) record(ev events.ActionEvent) error {
	if e.Recorder == nil {
		return nil
	}
	ev.Cash = e.Unit.Cash()
	if err := e.Recorder.Record(ev); err != nil {
		return fmt.Errorf("record %s of container %d: %w", ev.Type, ev.Container.ID, err)
	}
	return nil
}

func keyRef(k storage.PileKey) *storage.PileKey { return &k }

// place puts an arriving container on a pile at the current instant.
func (e *Env) place(c model.Container, to storage.PileKey) error {
	if err := e.Unit.Place(c, to); err != nil {
		return err
	}
	return e.record(events.ActionEvent{Time: e.Now(), Type: model.ActionPlace, Container: c, To: keyRef(to)})
}

// relocate moves the top of from onto to and consumes one step.
func (e *Env) relocate(from, to storage.PileKey) (model.Container, error) {
	c, err := e.Unit.PopTop(from)
	if err != nil {
		return model.Container{}, err
	}
	if err := e.Unit.Place(c, to); err != nil {
		// put it back so the unit stays consistent before reporting the defect
		if perr := e.Unit.Place(c, from); perr != nil {
			return c, errors.Join(err, perr)
		}
		return c, err
	}
	at := e.Clock.Tick(e.Budget.StepCost)
	return c, e.record(events.ActionEvent{Time: at, Type: model.ActionMove, Container: c, From: keyRef(from), To: keyRef(to)})
}

// release pops the top of a pile and sells or discards it according to the
// current instant, consuming one step. A container that is not actionable
// is pushed back and errNotActionable is returned.
func (e *Env) release(from storage.PileKey) (model.Container, error) {
	c, err := e.Unit.PopTop(from)
	if err != nil {
		return model.Container{}, err
	}
	now := e.Now()
	var typ model.ActionType
	switch {
	case c.Sellable(now):
		err = e.Unit.Sell(c)
		typ = model.ActionSell
	case c.Expired(now):
		err = e.Unit.Discard(c)
		typ = model.ActionDiscard
	default:
		if perr := e.Unit.Place(c, from); perr != nil {
			return c, perr
		}
		return c, errNotActionable
	}
	if err != nil {
		return c, err
	}
	at := e.Clock.Tick(e.Budget.StepCost)
	if e.Log != nil {
		e.Log.Debugw("container released", map[string]any{
			"container": int64(c.ID),
			"action":    string(typ),
			"time":      int64(at),
			"pile":      from.String(),
		})
	}
	return c, e.record(events.ActionEvent{Time: at, Type: typ, Container: c, From: keyRef(from)})
}

// topOf returns the top of a pile, false when the pile is empty. Any other
// failure is a strategy defect and is returned.
func (e *Env) topOf(k storage.PileKey) (model.Container, bool, error) {
	c, err := e.Unit.PeekTop(k)
	if errors.Is(err, storage.ErrEmptyPile) {
		return model.Container{}, false, nil
	}
	if err != nil {
		return model.Container{}, false, err
	}
	return c, true, nil
}
