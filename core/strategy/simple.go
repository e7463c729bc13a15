package strategy

import (
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
)

const (
	intakeIndex  = 0
	outflowIndex = 1
)

// Simple is the two-pile baseline. Arrivals land on the intake pile of their
// class; maintenance digs them one by one onto the outflow pile, whose top is
// sold or discarded once its window allows it.
type Simple struct{}

// NewSimple returns the baseline strategy.
func NewSimple() *Simple { return &Simple{} }

// Name implements Strategy.
func (*Simple) Name() string { return "simple" }

// Layout implements Strategy.
func (*Simple) Layout(classes []model.HeightClass) storage.Layout {
	return storage.Layout{Classes: classes, PilesPerClass: 2}
}

func intake(h model.HeightClass) storage.PileKey {
	return storage.PileKey{Class: h, Index: intakeIndex}
}

func outflow(h model.HeightClass) storage.PileKey {
	return storage.PileKey{Class: h, Index: outflowIndex}
}

// Arrive implements Strategy.
func (*Simple) Arrive(env *Env, c model.Container) error {
	return env.place(c, intake(c.Class))
}

// Step runs one pass over the classes in increasing order. For each class it
// moves the intake top onto the outflow pile, then independently sells or
// discards the outflow top when its window allows it.
func (s *Simple) Step(env *Env) (bool, error) {
	acted := false
	for _, h := range classesOf(env.Unit) {
		if !env.CanStep() {
			return acted, nil
		}
		_, ok, err := env.topOf(intake(h))
		if err != nil {
			return acted, err
		}
		if ok {
			if _, err := env.relocate(intake(h), outflow(h)); err != nil {
				return acted, err
			}
			acted = true
		}

		if !env.CanStep() {
			return acted, nil
		}
		top, ok, err := env.topOf(outflow(h))
		if err != nil {
			return acted, err
		}
		if !ok || !top.Actionable(env.Now()) {
			continue
		}
		if _, err := env.release(outflow(h)); err != nil {
			return acted, err
		}
		acted = true
	}
	return acted, nil
}

// WakeAt implements Strategy. Only the outflow tops are inspected; a
// non-empty intake pile is always actionable.
func (s *Simple) WakeAt(env *Env) (model.Time, bool) {
	now := env.Now()
	var (
		wake  model.Time
		found bool
	)
	for _, h := range classesOf(env.Unit) {
		if env.Unit.Height(intake(h)) > 0 {
			return now, true
		}
		top, err := env.Unit.PeekTop(outflow(h))
		if err != nil {
			continue
		}
		t, ok := top.ReadyAt(now)
		if !ok {
			return now, true
		}
		if !found || t < wake {
			wake, found = t, true
		}
	}
	return wake, found
}

// classesOf returns the distinct classes of the unit in increasing order.
func classesOf(u *storage.Unit) []model.HeightClass {
	var out []model.HeightClass
	for _, k := range u.Keys() {
		if len(out) == 0 || out[len(out)-1] != k.Class {
			out = append(out, k.Class)
		}
	}
	return out
}
