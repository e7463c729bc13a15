package config

import (
	"fmt"

	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/sim"
)

// YardConfig describes the physical yard.
type YardConfig struct {
	// Classes lists the height classes with piles. Empty means the classes
	// found in the input.
	Classes []model.HeightClass `json:"classes"`
}

// Validate checks that classes are positive and listed once.
func (c YardConfig) Validate() error {
	seen := make(map[model.HeightClass]bool, len(c.Classes))
	for _, h := range c.Classes {
		if h <= 0 {
			return fmt.Errorf("height class must be positive, got %d", h)
		}
		if seen[h] {
			return fmt.Errorf("height class %d listed twice", h)
		}
		seen[h] = true
	}
	return nil
}

// SimulationConfig defines the timing of runs.
type SimulationConfig struct {
	// StepCost is the duration of a move, sale or discard in ticks.
	StepCost int64 `json:"step_cost"`
	// TerminalBudget bounds the work after the last arrival, 0 for none.
	TerminalBudget int64 `json:"terminal_budget"`
	// Start is the initial clock value.
	Start int64 `json:"start"`
}

// SetDefaults applies sane defaults.
func (c *SimulationConfig) SetDefaults() {
	if c.StepCost == 0 {
		c.StepCost = 1
	}
}

// Validate checks the timing values.
func (c SimulationConfig) Validate() error {
	return c.Sim(nil).Validate()
}

// Sim builds the driver configuration for the given yard classes.
func (c SimulationConfig) Sim(classes []model.HeightClass) sim.Config {
	return sim.Config{
		Classes:        classes,
		StepCost:       model.Time(c.StepCost),
		TerminalBudget: model.Time(c.TerminalBudget),
		Start:          model.Time(c.Start),
	}
}

// InputConfig locates the container list.
type InputConfig struct {
	// Path of the container list. The format follows the extension: .yaml,
	// .yml and .json documents, anything else is the legacy text format.
	Path string `json:"path"`
	// Sort orders the arrivals by time before the run.
	Sort bool `json:"sort"`
}
