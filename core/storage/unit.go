// Package storage holds the physical state of the yard: LIFO piles keyed by
// height class and pile index, plus the cash ledger. It enforces the
// mechanical invariants only; sale windows are a strategy concern.
package storage

import (
	"fmt"

	"github.com/kilianp07/yard/core/model"
)

// Unit is the storage unit of one simulation run. It is owned by a single
// strategy at a time and is not safe for concurrent use.
type Unit struct {
	keys       []PileKey
	piles      map[PileKey]*pile
	located    map[model.ContainerID]PileKey
	terminated map[model.ContainerID]model.Outcome
	cash       int64
	sold       int
	discarded  int
}

// NewUnit builds an empty unit with the piles described by layout.
func NewUnit(layout Layout) *Unit {
	u := &Unit{
		keys:       layout.Keys(),
		piles:      make(map[PileKey]*pile),
		located:    make(map[model.ContainerID]PileKey),
		terminated: make(map[model.ContainerID]model.Outcome),
	}
	for _, k := range u.keys {
		u.piles[k] = &pile{class: k.Class}
	}
	return u
}

func (u *Unit) pile(key PileKey) (*pile, error) {
	p, ok := u.piles[key]
	if !ok {
		return nil, fmt.Errorf("%w: pile %s does not exist", ErrInvalidPileKey, key)
	}
	return p, nil
}

// Place pushes c on top of the pile addressed by key.
func (u *Unit) Place(c model.Container, key PileKey) error {
	p, err := u.pile(key)
	if err != nil {
		return err
	}
	if p.class != c.Class {
		return fmt.Errorf("%w: container %d of class %d on pile %s", ErrInvalidPileKey, c.ID, c.Class, key)
	}
	if at, ok := u.located[c.ID]; ok {
		return fmt.Errorf("%w: container %d is on pile %s", ErrDuplicateContainer, c.ID, at)
	}
	if _, ok := u.terminated[c.ID]; ok {
		return fmt.Errorf("%w: container %d already left the yard", ErrDuplicateContainer, c.ID)
	}
	p.push(c)
	u.located[c.ID] = key
	return nil
}

// PeekTop returns the reachable container of a pile without removing it.
func (u *Unit) PeekTop(key PileKey) (model.Container, error) {
	p, err := u.pile(key)
	if err != nil {
		return model.Container{}, err
	}
	c, ok := p.top()
	if !ok {
		return model.Container{}, fmt.Errorf("%w: %s", ErrEmptyPile, key)
	}
	return c, nil
}

// PopTop removes and returns the reachable container of a pile. The caller
// must place, sell or discard it before yielding control.
func (u *Unit) PopTop(key PileKey) (model.Container, error) {
	p, err := u.pile(key)
	if err != nil {
		return model.Container{}, err
	}
	c, ok := p.pop()
	if !ok {
		return model.Container{}, fmt.Errorf("%w: %s", ErrEmptyPile, key)
	}
	delete(u.located, c.ID)
	return c, nil
}

func (u *Unit) terminate(c model.Container, o model.Outcome) error {
	if at, ok := u.located[c.ID]; ok {
		return fmt.Errorf("%w: container %d is on pile %s", ErrStillStacked, c.ID, at)
	}
	if prev, ok := u.terminated[c.ID]; ok {
		return fmt.Errorf("%w: container %d was %s", ErrAlreadyTerminated, c.ID, prev)
	}
	u.terminated[c.ID] = o
	return nil
}

// Sell credits the container's price. The delivery window is not checked.
func (u *Unit) Sell(c model.Container) error {
	if err := u.terminate(c, model.OutcomeSold); err != nil {
		return err
	}
	u.cash += c.Price
	u.sold++
	return nil
}

// Discard drops the container without cash effect.
func (u *Unit) Discard(c model.Container) error {
	if err := u.terminate(c, model.OutcomeDiscarded); err != nil {
		return err
	}
	u.discarded++
	return nil
}

// Cash returns the realised cash balance.
func (u *Unit) Cash() int64 { return u.cash }

// Sold returns the number of sold containers.
func (u *Unit) Sold() int { return u.sold }

// Discarded returns the number of discarded containers.
func (u *Unit) Discarded() int { return u.discarded }

// Len returns the number of containers currently stacked.
func (u *Unit) Len() int { return len(u.located) }

// Keys returns all pile keys sorted by class then index.
func (u *Unit) Keys() []PileKey { return append([]PileKey(nil), u.keys...) }

// PilesFor returns the keys of the piles of class h, by index.
func (u *Unit) PilesFor(h model.HeightClass) []PileKey {
	var out []PileKey
	for _, k := range u.keys {
		if k.Class == h {
			out = append(out, k)
		}
	}
	return out
}

// Height returns the number of containers on a pile, 0 for unknown piles.
func (u *Unit) Height(key PileKey) int {
	if p, ok := u.piles[key]; ok {
		return len(p.items)
	}
	return 0
}

// MaxHeight returns the height of the tallest pile.
func (u *Unit) MaxHeight() int {
	h := 0
	for _, p := range u.piles {
		if len(p.items) > h {
			h = len(p.items)
		}
	}
	return h
}

// Location returns the pile holding the container, if it is stacked.
func (u *Unit) Location(id model.ContainerID) (PileKey, bool) {
	k, ok := u.located[id]
	return k, ok
}

// Outcome returns the terminal state of a container that left the yard.
func (u *Unit) Outcome(id model.ContainerID) (model.Outcome, bool) {
	o, ok := u.terminated[id]
	return o, ok
}

// Pile returns a copy of a pile's contents, bottom first.
func (u *Unit) Pile(key PileKey) []model.Container {
	p, ok := u.piles[key]
	if !ok {
		return nil
	}
	return append([]model.Container(nil), p.items...)
}
