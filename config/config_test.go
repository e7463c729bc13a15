package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/yard/core/model"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `yard:
  classes: [1, 2, 4]
strategy:
  type: expert
  conf:
    piles_per_class: 3
    dig_depth: 1
simulation:
  step_cost: 2
  terminal_budget: 50
input:
  path: containers.txt
  sort: true
journal:
  backend: sqlite
  path: out/journal.db
  text_path: out/run.log
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: prometheus
    - type: mqtt
      conf:
        broker: "tcp://localhost:1883"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"classes", len(cfg.Yard.Classes), 3},
		{"strategy", cfg.Strategy.Type, "expert"},
		{"piles_per_class", cfg.Strategy.Conf["piles_per_class"], 3},
		{"step_cost", cfg.Simulation.StepCost, int64(2)},
		{"terminal_budget", cfg.Simulation.TerminalBudget, int64(50)},
		{"input.path", cfg.Input.Path, "containers.txt"},
		{"input.sort", cfg.Input.Sort, true},
		{"journal.backend", cfg.Journal.Backend, "sqlite"},
		{"journal.text_path", cfg.Journal.TextPath, "out/run.log"},
		{"metrics.sinks", len(cfg.Metrics.Sinks), 2},
		{"metrics.sink", cfg.Metrics.Sinks[1].Type, "mqtt"},
		{"metrics.addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"workload default", cfg.Workload.Count, 100},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	sc := cfg.Simulation.Sim(cfg.Yard.Classes)
	assert.Equal(t, model.Time(2), sc.StepCost)
	assert.Equal(t, []model.HeightClass{1, 2, 4}, sc.Classes)
}

func TestLoad_JSONAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"strategy":{"type":"simple"},"simulation":{"step_cost":3}}`), 0o644))
	t.Setenv("YARD_SIMULATION__STEP_COST", "5")
	t.Setenv("YARD_JOURNAL__BACKEND", "jsonl")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "simple", cfg.Strategy.Type)
	assert.Equal(t, int64(5), cfg.Simulation.StepCost)
	assert.Equal(t, "jsonl", cfg.Journal.Backend)
	assert.Equal(t, "yard-journal.jsonl", cfg.Journal.Path)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "expert", cfg.Strategy.Type)
	assert.Equal(t, int64(1), cfg.Simulation.StepCost)
	assert.Equal(t, "memory", cfg.Journal.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	tests := []struct {
		name string
		path string
	}{
		{"format", write("c.toml", "")},
		{"missing", filepath.Join(dir, "none.yaml")},
		{"strategy", write("s.yaml", "strategy:\n  type: random\n")},
		{"class", write("c.yaml", "yard:\n  classes: [1, 1]\n")},
		{"step", write("t.yaml", "simulation:\n  step_cost: -1\n")},
		{"journal", write("j.yaml", "journal:\n  backend: csv\n")},
		{"logging", write("l.yaml", "logging:\n  level: loud\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			assert.Error(t, err)
		})
	}
}
