package sim

import (
	"fmt"
	"sort"

	"github.com/kilianp07/yard/core/model"
)

// Config defines the parameters of a simulation run.
type Config struct {
	// Classes lists the height classes the yard has piles for. When empty
	// the classes are taken from the arrivals.
	Classes []model.HeightClass `json:"classes"`
	// StepCost is the duration of a move, sale or discard in ticks.
	StepCost model.Time `json:"step_cost"`
	// TerminalBudget bounds the work after the last arrival. Zero lets the
	// strategy run until nothing can change anymore.
	TerminalBudget model.Time `json:"terminal_budget"`
	// Start is the initial clock value.
	Start model.Time `json:"start"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.StepCost == 0 {
		c.StepCost = 1
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.StepCost < 1 {
		return fmt.Errorf("step_cost must be at least 1, got %d", c.StepCost)
	}
	if c.TerminalBudget < 0 {
		return fmt.Errorf("terminal_budget must be non-negative, got %d", c.TerminalBudget)
	}
	for _, h := range c.Classes {
		if h <= 0 {
			return fmt.Errorf("height class must be positive, got %d", h)
		}
	}
	return nil
}

// classes returns the configured classes, or the distinct classes of the
// arrivals in increasing order.
func (c Config) classes(arrivals []model.Arrival) []model.HeightClass {
	if len(c.Classes) > 0 {
		return c.Classes
	}
	seen := make(map[model.HeightClass]bool)
	var out []model.HeightClass
	for _, a := range arrivals {
		if !seen[a.Container.Class] {
			seen[a.Container.Class] = true
			out = append(out, a.Container.Class)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
