package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/yard/core/factory"
	"github.com/kilianp07/yard/core/journal"
	"github.com/kilianp07/yard/core/metrics"
	"github.com/kilianp07/yard/core/strategy"
	"github.com/kilianp07/yard/workload"
)

// EnvPrefix starts every environment override. Nested keys are joined with
// a double underscore: YARD_SIMULATION__STEP_COST=2.
const EnvPrefix = "YARD_"

type Config struct {
	Yard       YardConfig           `json:"yard"`
	Strategy   factory.ModuleConfig `json:"strategy"`
	Simulation SimulationConfig     `json:"simulation"`
	Input      InputConfig          `json:"input"`
	Journal    journal.Config       `json:"journal"`
	Metrics    metrics.Config       `json:"metrics"`
	Logging    LoggingConfig        `json:"logging"`
	Workload   workload.Config      `json:"workload"`
}

// Load reads the configuration file at path, applies environment overrides,
// then defaults, and validates the result. An empty path uses the
// environment and the defaults only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used without any file.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	if c.Strategy.Type == "" {
		c.Strategy.Type = "expert"
	}
	c.Simulation.SetDefaults()
	c.Journal.SetDefaults()
	c.Logging.SetDefaults()
	c.Workload.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Yard.Validate(); err != nil {
		return fmt.Errorf("yard: %w", err)
	}
	known := false
	for _, n := range strategy.Names() {
		if n == c.Strategy.Type {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("strategy: unknown type %q", c.Strategy.Type)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.Journal.Validate(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Workload.Validate(); err != nil {
		return fmt.Errorf("workload: %w", err)
	}
	return nil
}
