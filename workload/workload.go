// Package workload generates synthetic container arrival streams.
package workload

import (
	"fmt"
	"math/rand"

	"github.com/kilianp07/yard/core/model"
)

// Config holds parameters for stream generation. Ranges are inclusive.
type Config struct {
	Count   int                 `json:"count"`
	Seed    int64               `json:"seed"`
	Classes []model.HeightClass `json:"classes"`
	// MaxGap bounds the ticks between two consecutive arrivals.
	MaxGap int64 `json:"max_gap"`
	// MinLead and MaxLead bound the delay between arrival and the opening
	// of the delivery window.
	MinLead int64 `json:"min_lead"`
	MaxLead int64 `json:"max_lead"`
	// MinWindow and MaxWindow bound the window length.
	MinWindow int64 `json:"min_window"`
	MaxWindow int64 `json:"max_window"`
	MinPrice  int64 `json:"min_price"`
	MaxPrice  int64 `json:"max_price"`
	// Slack, when positive, sets an explicit deadline that many ticks after
	// each arrival.
	Slack int64 `json:"slack"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Count == 0 {
		c.Count = 100
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	if len(c.Classes) == 0 {
		c.Classes = []model.HeightClass{1, 2, 3, 4}
	}
	if c.MaxGap == 0 {
		c.MaxGap = 5
	}
	if c.MaxLead == 0 {
		c.MaxLead = 20
	}
	if c.MinWindow == 0 {
		c.MinWindow = 5
	}
	if c.MaxWindow == 0 {
		c.MaxWindow = 30
	}
	if c.MinPrice == 0 {
		c.MinPrice = 1
	}
	if c.MaxPrice == 0 {
		c.MaxPrice = 100
	}
}

// Validate checks the ranges.
func (c Config) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("count must be non-negative, got %d", c.Count)
	}
	for _, h := range c.Classes {
		if h <= 0 {
			return fmt.Errorf("height class must be positive, got %d", h)
		}
	}
	ranges := []struct {
		name     string
		min, max int64
	}{
		{"gap", 0, c.MaxGap},
		{"lead", c.MinLead, c.MaxLead},
		{"window", c.MinWindow, c.MaxWindow},
		{"price", c.MinPrice, c.MaxPrice},
	}
	for _, r := range ranges {
		if r.min < 0 || r.max < r.min {
			return fmt.Errorf("invalid %s range [%d,%d]", r.name, r.min, r.max)
		}
	}
	if c.Slack < 0 {
		return fmt.Errorf("slack must be non-negative, got %d", c.Slack)
	}
	return nil
}

// Generate returns Count arrivals with IDs 1..Count in arrival order. The
// same configuration always yields the same stream.
func Generate(cfg Config) ([]model.Arrival, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	between := func(lo, hi int64) int64 { return lo + rng.Int63n(hi-lo+1) }

	out := make([]model.Arrival, cfg.Count)
	var now int64
	for i := range out {
		if i > 0 {
			now += between(0, cfg.MaxGap)
		}
		earliest := now + between(cfg.MinLead, cfg.MaxLead)
		c := model.Container{
			ID:      model.ContainerID(i + 1),
			Class:   cfg.Classes[rng.Intn(len(cfg.Classes))],
			Arrival: model.Time(now),
			Window: model.Window{
				Earliest: model.Time(earliest),
				Latest:   model.Time(earliest + between(cfg.MinWindow, cfg.MaxWindow)),
			},
			Price: between(cfg.MinPrice, cfg.MaxPrice),
		}
		out[i] = model.Arrival{Container: c}
		if cfg.Slack > 0 {
			out[i].Deadline = model.Time(now + cfg.Slack)
		}
	}
	return out, nil
}
