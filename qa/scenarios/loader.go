package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/yard/core/factory"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/ingest"
)

// Expected lists the figures a strategy must reach. Unset fields are not
// checked.
type Expected struct {
	Cash      *int64 `yaml:"cash,omitempty"`
	MinCash   *int64 `yaml:"min_cash,omitempty"`
	Sold      *int   `yaml:"sold,omitempty"`
	Discarded *int   `yaml:"discarded,omitempty"`
	Remaining *int   `yaml:"remaining,omitempty"`
}

type Scenario struct {
	Name           string                 `yaml:"name"`
	Description    string                 `yaml:"description,omitempty"`
	StepCost       int64                  `yaml:"step_cost,omitempty"`
	TerminalBudget int64                  `yaml:"terminal_budget,omitempty"`
	Containers     []ingest.Record        `yaml:"containers"`
	Strategies     []factory.ModuleConfig `yaml:"strategies,omitempty"`
	Expected       map[string]Expected    `yaml:"expected"`

	// ExpertAtLeastSimple requires the expert run to collect at least the
	// cash of the simple run.
	ExpertAtLeastSimple bool `yaml:"expert_at_least_simple,omitempty"`
}

// Arrivals returns the validated container stream.
func (s *Scenario) Arrivals() ([]model.Arrival, error) {
	arrivals := make([]model.Arrival, len(s.Containers))
	for i, r := range s.Containers {
		arrivals[i] = r.ToModel()
	}
	if err := ingest.Validate(arrivals); err != nil {
		return nil, err
	}
	return arrivals, nil
}

// strategyConfigs defaults to both built-in strategies.
func (s *Scenario) strategyConfigs() []factory.ModuleConfig {
	if len(s.Strategies) > 0 {
		return s.Strategies
	}
	return []factory.ModuleConfig{{Type: "simple"}, {Type: "expert"}}
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	return &sc, nil
}
