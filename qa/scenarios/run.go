package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/yard/core/audit"
	"github.com/kilianp07/yard/core/journal"
	"github.com/kilianp07/yard/core/logger"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/sim"
	"github.com/kilianp07/yard/core/strategy"
	"github.com/kilianp07/yard/infra/metrics"
	"github.com/kilianp07/yard/ingest"
)

// RunScenario runs every strategy of sc, audits the journal of each run and
// checks the expected figures.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	arrivals, err := sc.Arrivals()
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	sink, err := metrics.NewPromSinkWithRegistry(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	cfg := sim.Config{
		Classes:        ingest.Classes(arrivals),
		StepCost:       model.Time(sc.StepCost),
		TerminalBudget: model.Time(sc.TerminalBudget),
	}
	registry := ingest.Registry(arrivals)

	cash := make(map[string]int64)
	for _, mc := range sc.strategyConfigs() {
		s, err := strategy.New(mc)
		if err != nil {
			t.Fatalf("strategy %s: %v", mc.Type, err)
		}
		store := journal.NewMemoryStore()
		r, err := sim.NewRunner(cfg, s, sim.WithJournal(store), sim.WithSink(sink), sim.WithLogger(logger.NopLogger{}))
		if err != nil {
			t.Fatalf("runner: %v", err)
		}
		rep, err := r.Run(context.Background(), arrivals)
		if err != nil {
			t.Fatalf("scenario %s, %s: %v", sc.Name, s.Name(), err)
		}
		cash[s.Name()] = rep.Cash

		log, err := store.Query(context.Background(), journal.Query{RunID: rep.RunID})
		if err != nil {
			t.Fatalf("journal: %v", err)
		}
		stepCost := model.Time(sc.StepCost)
		if stepCost == 0 {
			stepCost = 1
		}
		if _, err := audit.Verify(log, registry, s.Layout(cfg.Classes), audit.Options{StepCost: stepCost}); err != nil {
			t.Errorf("scenario %s, %s: %v", sc.Name, s.Name(), err)
		}
		if exp, ok := sc.Expected[s.Name()]; ok {
			checkExpected(t, sc.Name+"/"+s.Name(), exp, rep)
		}
	}

	if sc.ExpertAtLeastSimple {
		simple, okS := cash["simple"]
		expert, okE := cash["expert"]
		if !okS || !okE {
			t.Fatalf("scenario %s compares strategies but does not run both", sc.Name)
		}
		if expert < simple {
			t.Errorf("scenario %s: expert collected %d, simple %d", sc.Name, expert, simple)
		}
	}
}

func checkExpected(t *testing.T, name string, exp Expected, rep *sim.Report) {
	t.Helper()
	if exp.Cash != nil && rep.Cash != *exp.Cash {
		t.Errorf("%s expected cash %d, got %d", name, *exp.Cash, rep.Cash)
	}
	if exp.MinCash != nil && rep.Cash < *exp.MinCash {
		t.Errorf("%s expected at least %d cash, got %d", name, *exp.MinCash, rep.Cash)
	}
	if exp.Sold != nil && rep.Sold != *exp.Sold {
		t.Errorf("%s expected %d sold, got %d", name, *exp.Sold, rep.Sold)
	}
	if exp.Discarded != nil && rep.Discarded != *exp.Discarded {
		t.Errorf("%s expected %d discarded, got %d", name, *exp.Discarded, rep.Discarded)
	}
	if exp.Remaining != nil && rep.Remaining != *exp.Remaining {
		t.Errorf("%s expected %d remaining, got %d", name, *exp.Remaining, rep.Remaining)
	}
}
