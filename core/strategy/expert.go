package strategy

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
)

// ExpertConfig tunes the scored strategy.
type ExpertConfig struct {
	// PilesPerClass is the number of parallel piles per height class.
	PilesPerClass int `json:"piles_per_class"`
	// Weights rank piles by recoverable cash and freed space.
	Weights Weights `json:"weights"`
	// MinScore is the score a pile must exceed to be serviced.
	MinScore float64 `json:"min_score"`
	// DigDepth is how many blocking containers may be lifted onto a sibling
	// pile to uncover an actionable run. Zero disables digging.
	DigDepth int `json:"dig_depth"`
}

// DefaultExpertConfig returns the tuned defaults.
func DefaultExpertConfig() ExpertConfig {
	return ExpertConfig{
		PilesPerClass: 2,
		Weights:       DefaultWeights(),
		MinScore:      0,
		DigDepth:      2,
	}
}

// Validate checks the configuration.
func (c ExpertConfig) Validate() error {
	if c.PilesPerClass < 2 {
		return fmt.Errorf("piles_per_class must be at least 2, got %d", c.PilesPerClass)
	}
	if c.MinScore < 0 {
		return fmt.Errorf("min_score must be non-negative, got %v", c.MinScore)
	}
	if c.DigDepth < 0 {
		return fmt.Errorf("dig_depth must be non-negative, got %d", c.DigDepth)
	}
	return c.Weights.Validate()
}

// Expert services, at every step, the pile whose reachable run is worth the
// most. Ties go to the lowest class, then the lowest pile index.
type Expert struct {
	cfg ExpertConfig
}

// NewExpert returns an expert strategy. The configuration must be valid.
func NewExpert(cfg ExpertConfig) (*Expert, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Expert{cfg: cfg}, nil
}

// Config returns the strategy configuration.
func (x *Expert) Config() ExpertConfig { return x.cfg }

// Name implements Strategy.
func (*Expert) Name() string { return "expert" }

// Layout implements Strategy.
func (x *Expert) Layout(classes []model.HeightClass) storage.Layout {
	return storage.Layout{Classes: classes, PilesPerClass: x.cfg.PilesPerClass}
}

// Arrive places the container on the pile of its class whose top has the
// latest delivery deadline. Empty piles win; ties go to the lowest index.
func (x *Expert) Arrive(env *Env, c model.Container) error {
	keys := env.Unit.PilesFor(c.Class)
	if len(keys) == 0 {
		return fmt.Errorf("%w: no pile for class %d", storage.ErrInvalidPileKey, c.Class)
	}
	return env.place(c, x.placement(env, keys, nil))
}

// placement picks among keys the pile burying the least urgent top.
func (x *Expert) placement(env *Env, keys []storage.PileKey, skip *storage.PileKey) storage.PileKey {
	var (
		best     storage.PileKey
		bestTop  model.Time
		haveBest bool
	)
	for _, k := range keys {
		if skip != nil && k == *skip {
			continue
		}
		top := model.Time(math.MaxInt64)
		if c, err := env.Unit.PeekTop(k); err == nil {
			top = c.Window.Latest
		}
		if !haveBest || top > bestTop {
			best, bestTop, haveBest = k, top, true
		}
	}
	return best
}

type rankedPile struct {
	key   storage.PileKey
	score Score
}

// best returns the highest scoring pile above MinScore, skipping excluded
// keys. Keys are visited in order so the first maximum wins ties.
func (x *Expert) best(env *Env, exclude map[storage.PileKey]bool) (rankedPile, bool) {
	now := env.Now()
	var (
		top   rankedPile
		found bool
	)
	for _, k := range env.Unit.Keys() {
		if exclude[k] {
			continue
		}
		s := ScorePile(env.Unit.Pile(k), now, x.cfg.Weights)
		if s.Removable == 0 || s.Total <= x.cfg.MinScore {
			continue
		}
		if !found || s.Total > top.score.Total {
			top, found = rankedPile{key: k, score: s}, true
		}
	}
	return top, found
}

// Step services the best pile, or digs when no pile has a positive score.
func (x *Expert) Step(env *Env) (bool, error) {
	if !env.CanStep() {
		return false, nil
	}
	exclude := map[storage.PileKey]bool{}
	for {
		p, ok := x.best(env, exclude)
		if !ok {
			break
		}
		_, err := env.release(p.key)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, errNotActionable), errors.Is(err, storage.ErrEmptyPile):
			exclude[p.key] = true
		default:
			return false, err
		}
	}
	return x.dig(env)
}

type digMove struct {
	from, to storage.PileKey
	value    float64
}

// dig lifts one blocker off the pile whose buried run is worth the most per
// container lifted. The blocker goes to a sibling with nothing actionable
// near its top, so no sellable container is buried in the process.
func (x *Expert) dig(env *Env) (bool, error) {
	if x.cfg.DigDepth == 0 {
		return false, nil
	}
	now := env.Now()
	var (
		move  digMove
		found bool
	)
	for _, k := range env.Unit.Keys() {
		blockers, s := BuriedScore(env.Unit.Pile(k), now, x.cfg.Weights, x.cfg.DigDepth)
		if blockers == 0 || s.Total <= x.cfg.MinScore {
			continue
		}
		value := s.Total / float64(blockers+1)
		if found && value <= move.value {
			continue
		}
		targets := x.digTargets(env, k)
		if len(targets) == 0 {
			continue
		}
		move = digMove{from: k, to: x.placement(env, targets, &k), value: value}
		found = true
	}
	if !found {
		return false, nil
	}
	if _, err := env.relocate(move.from, move.to); err != nil {
		return false, err
	}
	return true, nil
}

// digTargets lists the siblings of k with no actionable container within
// DigDepth of their top.
func (x *Expert) digTargets(env *Env, k storage.PileKey) []storage.PileKey {
	now := env.Now()
	var out []storage.PileKey
	for _, sib := range env.Unit.PilesFor(k.Class) {
		if sib == k {
			continue
		}
		pile := env.Unit.Pile(sib)
		if ScorePile(pile, now, x.cfg.Weights).Removable > 0 {
			continue
		}
		if b, _ := BuriedScore(pile, now, x.cfg.Weights, x.cfg.DigDepth); b > 0 {
			continue
		}
		out = append(out, sib)
	}
	return out
}

// WakeAt implements Strategy. Any stacked container may become reachable
// through digging, so every pile is inspected.
func (x *Expert) WakeAt(env *Env) (model.Time, bool) {
	now := env.Now()
	var (
		wake  model.Time
		found bool
	)
	for _, k := range env.Unit.Keys() {
		for _, c := range env.Unit.Pile(k) {
			t, ok := c.ReadyAt(now)
			if !ok {
				continue
			}
			if !found || t < wake {
				wake, found = t, true
			}
		}
	}
	return wake, found
}
