// Package app wires the configuration into a ready-to-run yard simulation:
// logging, input, strategy, journal, metrics sinks and the live event bus.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/yard/config"
	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/factory"
	"github.com/kilianp07/yard/core/journal"
	coremetrics "github.com/kilianp07/yard/core/metrics"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/sim"
	"github.com/kilianp07/yard/core/strategy"
	"github.com/kilianp07/yard/infra/logger"
	"github.com/kilianp07/yard/infra/metrics"
	"github.com/kilianp07/yard/ingest"
	"github.com/kilianp07/yard/internal/eventbus"

	// registers the mqtt sink
	_ "github.com/kilianp07/yard/infra/mqtt"
)

// Service owns the long-lived resources of the application.
type Service struct {
	cfg   *config.Config
	logs  *logger.Factory
	log   logger.Logger
	sink  coremetrics.Sink
	store journal.Store
	bus   *eventbus.Bus[events.ActionEvent]

	promOnce sync.Once
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logs, err := logger.NewFactory(cfg.Logging.Options())
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	svc := &Service{cfg: cfg, logs: logs, log: logs.New("service"), bus: eventbus.New[events.ActionEvent]()}

	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = logs.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	svc.sink = sink

	store, err := journal.Open(cfg.Journal)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("journal: %w", err)
	}
	svc.store = store
	return svc, nil
}

// Logger returns a component logger writing to the configured output.
func (s *Service) Logger(component string) logger.Logger { return s.logs.New(component) }

// Bus returns the bus every recorded action is published on.
func (s *Service) Bus() *eventbus.Bus[events.ActionEvent] { return s.bus }

// Journal returns the configured action store.
func (s *Service) Journal() journal.Store { return s.store }

// ServeMetrics starts the Prometheus endpoint when an address is configured.
// The server stops with ctx. Later calls do nothing.
func (s *Service) ServeMetrics(ctx context.Context) {
	addr := s.cfg.Metrics.PrometheusAddr
	if addr == "" {
		return
	}
	s.promOnce.Do(func() {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, prometheus.DefaultGatherer); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	})
}

// Arrivals loads the configured input, or path when not empty.
func (s *Service) Arrivals(path string) ([]model.Arrival, error) {
	if path == "" {
		path = s.cfg.Input.Path
	}
	if path == "" {
		return nil, errors.New("no input path configured")
	}
	arrivals, err := ingest.Load(path)
	if err != nil {
		return nil, err
	}
	if s.cfg.Input.Sort {
		ingest.SortByArrival(arrivals)
	}
	s.log.Infof("loaded %d containers from %s", len(arrivals), path)
	return arrivals, nil
}

// Strategy builds the configured strategy.
func (s *Service) Strategy() (strategy.Strategy, error) {
	return strategy.New(s.cfg.Strategy)
}

// Strategies builds the named strategies. The configured strategy keeps its
// settings; the others use their defaults.
func (s *Service) Strategies(names ...string) ([]strategy.Strategy, error) {
	out := make([]strategy.Strategy, 0, len(names))
	for _, n := range names {
		mc := factory.ModuleConfig{Type: n}
		if n == s.cfg.Strategy.Type {
			mc = s.cfg.Strategy
		}
		st, err := strategy.New(mc)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Classes returns the configured yard classes or those of the arrivals.
func (s *Service) Classes(arrivals []model.Arrival) []model.HeightClass {
	if len(s.cfg.Yard.Classes) > 0 {
		return s.cfg.Yard.Classes
	}
	return ingest.Classes(arrivals)
}

// Run simulates the configured strategy over arrivals.
func (s *Service) Run(ctx context.Context, arrivals []model.Arrival) (*sim.Report, error) {
	st, err := s.Strategy()
	if err != nil {
		return nil, err
	}
	reports, err := s.Compare(ctx, arrivals, st)
	if len(reports) == 0 {
		return nil, err
	}
	return reports[0], err
}

// Compare runs every strategy over the same arrivals. Each run gets its own
// text log when one is configured.
func (s *Service) Compare(ctx context.Context, arrivals []model.Arrival, strategies ...strategy.Strategy) ([]*sim.Report, error) {
	classes := s.Classes(arrivals)
	cfg := s.cfg.Simulation.Sim(classes)
	reports := make([]*sim.Report, 0, len(strategies))
	for _, st := range strategies {
		rep, err := s.run(ctx, cfg, st, arrivals, len(strategies) > 1)
		if rep != nil {
			reports = append(reports, rep)
		}
		if err != nil {
			return reports, fmt.Errorf("%s: %w", st.Name(), err)
		}
	}
	return reports, nil
}

func (s *Service) run(ctx context.Context, cfg sim.Config, st strategy.Strategy, arrivals []model.Arrival, multi bool) (*sim.Report, error) {
	writers := []journal.Writer{s.store}
	var text *journal.TextWriter
	if base := s.cfg.Journal.TextPath; base != "" {
		tw, err := openTextLog(textPath(base, st.Name(), multi), st, cfg.Classes)
		if err != nil {
			return nil, fmt.Errorf("text log: %w", err)
		}
		text = tw
		writers = append(writers, tw)
	}
	runner, err := sim.NewRunner(cfg, st,
		sim.WithJournal(writers...),
		sim.WithSink(s.sink),
		sim.WithBus(s.bus),
		sim.WithLogger(s.logs.New("sim")),
	)
	if err != nil {
		if text != nil {
			_ = text.Close()
		}
		return nil, err
	}
	rep, err := runner.Run(ctx, arrivals)
	if text != nil {
		if cerr := text.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("text log: %w", cerr)
		}
	}
	return rep, err
}

func openTextLog(path string, st strategy.Strategy, classes []model.HeightClass) (*journal.TextWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	tw, err := journal.NewTextWriter(f, st.Name(), st.Layout(classes).Keys())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return tw, nil
}

// textPath inserts the strategy name before the extension when several runs
// share one configured path.
func textPath(base, name string, multi bool) string {
	if !multi {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + name + ext
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	s.bus.Close()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("journal: %w", err))
		}
	}
	if c, ok := s.sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}
	if err := s.logs.Close(); err != nil {
		errs = append(errs, fmt.Errorf("logger: %w", err))
	}
	return errors.Join(errs...)
}
