package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/yard/core/events"
	coremetrics "github.com/kilianp07/yard/core/metrics"
	"github.com/kilianp07/yard/core/model"
)

// PromSink records yard activity in Prometheus metrics.
type PromSink struct {
	actions  *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	revenue  *prometheus.CounterVec
	dwell    *prometheus.HistogramVec
	cash     *prometheus.GaugeVec
	stacked  *prometheus.GaugeVec
	height   *prometheus.GaugeVec
	runs     *prometheus.CounterVec
}

// NewPromSink registers yard metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yard_actions_total",
			Help: "Operations applied to the yard",
		}, []string{"strategy", "type"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yard_outcomes_total",
			Help: "Containers that left the yard",
		}, []string{"strategy", "outcome"}),
		revenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yard_revenue_total",
			Help: "Cash collected from sales",
		}, []string{"strategy"}),
		dwell: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yard_dwell_ticks",
			Help:    "Ticks between arrival and departure",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"strategy", "outcome"}),
		cash: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "yard_cash",
			Help: "Cash balance of the current run",
		}, []string{"strategy"}),
		stacked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "yard_stacked_containers",
			Help: "Containers currently in piles",
		}, []string{"strategy"}),
		height: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "yard_pile_height",
			Help: "Height of each pile",
		}, []string{"strategy", "pile"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yard_runs_total",
			Help: "Simulation runs by phase",
		}, []string{"strategy", "phase", "failed"}),
	}
	var err error
	if s.actions, err = register(reg, s.actions); err != nil {
		return nil, err
	}
	if s.outcomes, err = register(reg, s.outcomes); err != nil {
		return nil, err
	}
	if s.revenue, err = register(reg, s.revenue); err != nil {
		return nil, err
	}
	if s.dwell, err = register(reg, s.dwell); err != nil {
		return nil, err
	}
	if s.cash, err = register(reg, s.cash); err != nil {
		return nil, err
	}
	if s.stacked, err = register(reg, s.stacked); err != nil {
		return nil, err
	}
	if s.height, err = register(reg, s.height); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordAction counts the action and tracks the cash balance.
func (s *PromSink) RecordAction(ev events.ActionEvent) error {
	s.actions.WithLabelValues(ev.Strategy, string(ev.Type)).Inc()
	s.cash.WithLabelValues(ev.Strategy).Set(float64(ev.Cash))
	return nil
}

// RecordOutcome counts the outcome and observes the dwell time.
func (s *PromSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	outcome := ev.Outcome.String()
	s.outcomes.WithLabelValues(ev.Strategy, outcome).Inc()
	s.dwell.WithLabelValues(ev.Strategy, outcome).Observe(float64(ev.Dwell()))
	if ev.Outcome == model.OutcomeSold {
		s.revenue.WithLabelValues(ev.Strategy).Add(float64(ev.Price))
	}
	return nil
}

// RecordOccupancy sets the pile height gauges.
func (s *PromSink) RecordOccupancy(o coremetrics.OccupancySample) error {
	s.stacked.WithLabelValues(o.Strategy).Set(float64(o.Stacked))
	for k, h := range o.Heights {
		s.height.WithLabelValues(o.Strategy, k.String()).Set(float64(h))
	}
	return nil
}

// RecordRun counts run boundaries.
func (s *PromSink) RecordRun(ev events.RunEvent) error {
	s.runs.WithLabelValues(ev.Strategy, string(ev.Phase), strconv.FormatBool(ev.Err != nil)).Inc()
	if ev.Phase == events.RunStarted {
		s.cash.WithLabelValues(ev.Strategy).Set(0)
	}
	return nil
}
