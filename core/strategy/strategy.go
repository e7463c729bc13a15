// Package strategy implements the yard decision engines. A Strategy places
// arriving containers and, during the idle interval before the next arrival,
// moves, sells or discards reachable containers through the storage unit.
package strategy

import (
	"context"
	"fmt"

	"github.com/kilianp07/yard/core/clock"
	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/logger"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
)

// Strategy is one yard policy. Implementations hold configuration only; all
// pile state lives in the storage unit reached through Env.
type Strategy interface {
	Name() string
	// Layout returns the piles the strategy needs for the given classes.
	Layout(classes []model.HeightClass) storage.Layout
	// Arrive places a new container. Placement takes no simulated time.
	Arrive(env *Env, c model.Container) error
	// Step performs one unit of maintenance work and reports whether any
	// action was taken. It must stop before exceeding the budget.
	Step(env *Env) (bool, error)
	// WakeAt returns the next instant at which a reachable container becomes
	// actionable, false when nothing will ever change without new work.
	WakeAt(env *Env) (model.Time, bool)
}

// Recorder receives every action applied to the yard.
type Recorder interface {
	Record(ev events.ActionEvent) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(events.ActionEvent) error

// Record calls f.
func (f RecorderFunc) Record(ev events.ActionEvent) error { return f(ev) }

// Budget bounds the maintenance work of one idle interval.
type Budget struct {
	// Deadline is the instant by which every action must be complete.
	Deadline model.Time
	// Unbounded lifts the deadline, used after the last arrival.
	Unbounded bool
	// StepCost is the duration of one move, sale or discard.
	StepCost model.Time
}

// CanStepAt reports whether an action starting at t fits in the budget.
func (b Budget) CanStepAt(t model.Time) bool {
	return b.Unbounded || t+b.StepCost <= b.Deadline
}

// Exhausted reports whether no action can start at t anymore.
func (b Budget) Exhausted(t model.Time) bool { return !b.CanStepAt(t) }

// Env is what a strategy may touch while it runs.
type Env struct {
	Unit     *storage.Unit
	Clock    *clock.Clock
	Budget   Budget
	Recorder Recorder
	Log      logger.Logger
}

// Now returns the current simulated instant.
func (e *Env) Now() model.Time { return e.Clock.Now() }

// CanStep reports whether one more action fits before the deadline.
func (e *Env) CanStep() bool { return e.Budget.CanStepAt(e.Clock.Now()) }

// Maintain runs maintenance steps until nothing is actionable within the
// budget. When a step does nothing the clock jumps to the strategy's next
// wake time if an action could still start there. Every return point leaves
// the unit at rest.
func Maintain(ctx context.Context, s Strategy, env *Env) error {
	for env.CanStep() {
		if err := ctx.Err(); err != nil {
			return err
		}
		acted, err := s.Step(env)
		if err != nil {
			return fmt.Errorf("%s maintenance at %d: %w", s.Name(), env.Now(), err)
		}
		if acted {
			continue
		}
		wake, ok := s.WakeAt(env)
		if !ok || wake <= env.Now() || !env.Budget.CanStepAt(wake) {
			return nil
		}
		if err := env.Clock.AdvanceTo(wake); err != nil {
			return err
		}
	}
	return nil
}
