// Package sim drives a strategy through an ordered stream of arrivals. It
// owns the clock and the storage unit of a run, sets the idle budget before
// each maintenance phase and fans every recorded action out to the journal,
// the metrics sinks and live observers.
package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kilianp07/yard/core/clock"
	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/journal"
	"github.com/kilianp07/yard/core/logger"
	"github.com/kilianp07/yard/core/metrics"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
	"github.com/kilianp07/yard/core/strategy"
	"github.com/kilianp07/yard/internal/eventbus"
)

var (
	// ErrOutOfOrderArrival is returned when an arrival is earlier than the
	// previous one or than the clock.
	ErrOutOfOrderArrival = errors.New("arrival out of order")
	// ErrInvalidArrival is returned for malformed arrival records.
	ErrInvalidArrival = errors.New("invalid arrival")
)

// Runner executes simulation runs for one strategy.
type Runner struct {
	cfg      Config
	strategy strategy.Strategy
	journals []journal.Writer
	sink     metrics.Sink
	bus      *eventbus.Bus[events.ActionEvent]
	log      logger.Logger
	runID    string
}

// Option configures a Runner.
type Option func(*Runner)

// WithJournal appends every action to the given writers.
func WithJournal(w ...journal.Writer) Option {
	return func(r *Runner) { r.journals = append(r.journals, w...) }
}

// WithSink reports actions, outcomes, occupancy and run boundaries to s.
func WithSink(s metrics.Sink) Option {
	return func(r *Runner) {
		if s != nil {
			r.sink = s
		}
	}
}

// WithBus publishes every action on b.
func WithBus(b *eventbus.Bus[events.ActionEvent]) Option {
	return func(r *Runner) { r.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// NewRunner validates cfg and returns a runner for s.
func NewRunner(cfg Config, s strategy.Strategy, opts ...Option) (*Runner, error) {
	if s == nil {
		return nil, fmt.Errorf("sim: nil strategy")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{cfg: cfg, strategy: s, sink: metrics.NopSink{}, log: logger.NopLogger{}}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// run is the state of one execution.
type run struct {
	*Runner
	ctx       context.Context
	id        string
	env       *strategy.Env
	seq       int64
	report    *Report
	maxHeight int
}

// Run feeds the arrivals, in order, to the strategy. After each arrival the
// strategy may work until the next arrival or the arrival's own deadline,
// whichever comes first. After the last one it works within the terminal
// budget. The report is returned even when the run fails midway.
func (r *Runner) Run(ctx context.Context, arrivals []model.Arrival) (*Report, error) {
	id := r.runID
	if id == "" {
		id = uuid.NewString()
	}
	classes := r.cfg.classes(arrivals)
	st := &run{
		Runner: r,
		ctx:    ctx,
		id:     id,
		report: &Report{RunID: id, Strategy: r.strategy.Name(), Arrivals: len(arrivals)},
	}
	st.env = &strategy.Env{
		Unit:     storage.NewUnit(r.strategy.Layout(classes)),
		Clock:    clock.New(r.cfg.Start),
		Recorder: strategy.RecorderFunc(st.record),
		Log:      r.log,
	}
	st.runEvent(events.RunStarted, nil)
	r.log.Infof("run %s: %s strategy, %d arrivals, classes %v", id, r.strategy.Name(), len(arrivals), classes)

	err := st.execute(arrivals)
	st.finish()
	if err == nil {
		err = st.report.conserved()
	}
	st.runEvent(events.RunFinished, err)
	if err != nil {
		r.log.Errorf("run %s aborted at %d: %v", id, st.env.Now(), err)
		return st.report, err
	}
	r.log.Infof("run %s finished at %d: cash %d, sold %d, discarded %d, stacked %d",
		id, st.report.End, st.report.Cash, st.report.Sold, st.report.Discarded, st.report.Remaining)
	return st.report, nil
}

func (st *run) execute(arrivals []model.Arrival) error {
	env := st.env
	for i, a := range arrivals {
		if err := st.ctx.Err(); err != nil {
			return err
		}
		c := a.Container
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidArrival, err)
		}
		if c.Arrival < env.Now() {
			return fmt.Errorf("%w: container %d arrives at %d, clock is at %d", ErrOutOfOrderArrival, c.ID, c.Arrival, env.Now())
		}
		if a.Deadline != 0 && a.Deadline < c.Arrival {
			return fmt.Errorf("%w: container %d deadline %d before its arrival at %d", ErrInvalidArrival, c.ID, a.Deadline, c.Arrival)
		}
		if err := env.Clock.AdvanceTo(c.Arrival); err != nil {
			return err
		}
		if err := st.strategy.Arrive(env, c); err != nil {
			return fmt.Errorf("arrival of container %d: %w", c.ID, err)
		}

		deadline, bounded := a.Deadline, a.Deadline != 0
		if i+1 < len(arrivals) {
			next := arrivals[i+1].Container.Arrival
			if next < c.Arrival {
				return fmt.Errorf("%w: container %d arrives at %d after container %d at %d",
					ErrOutOfOrderArrival, arrivals[i+1].Container.ID, next, c.ID, c.Arrival)
			}
			if !bounded || next < deadline {
				deadline, bounded = next, true
			}
		}
		if bounded {
			env.Budget = strategy.Budget{Deadline: deadline, StepCost: st.cfg.StepCost}
			if err := strategy.Maintain(st.ctx, st.strategy, env); err != nil {
				return err
			}
		}
		st.log.Debugw("arrival handled", map[string]any{
			"run":       st.id,
			"container": int64(c.ID),
			"arrival":   int64(c.Arrival),
			"deadline":  int64(deadline),
			"now":       int64(env.Now()),
			"stacked":   env.Unit.Len(),
		})
		st.sample()
	}
	if err := st.ctx.Err(); err != nil {
		return err
	}
	env.Budget = strategy.Budget{StepCost: st.cfg.StepCost, Unbounded: true}
	if st.cfg.TerminalBudget > 0 {
		env.Budget = strategy.Budget{StepCost: st.cfg.StepCost, Deadline: env.Now() + st.cfg.TerminalBudget}
	}
	if err := strategy.Maintain(st.ctx, st.strategy, env); err != nil {
		return err
	}
	st.sample()
	return nil
}

// record stamps the action with the run identity and fans it out. Journal
// failures abort the run; sink failures are logged.
func (st *run) record(ev events.ActionEvent) error {
	st.seq++
	ev.RunID = st.id
	ev.Strategy = st.strategy.Name()
	ev.Seq = st.seq

	for _, w := range st.journals {
		if err := w.Append(st.ctx, ev); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}
	if err := st.sink.RecordAction(ev); err != nil {
		st.log.Errorf("metrics action error: %v", err)
	}
	st.report.Actions++
	switch ev.Type {
	case model.ActionPlace:
		st.report.Placed++
	case model.ActionMove:
		st.report.Moves++
	}
	if te, ok := ev.Terminal(); ok {
		st.report.Outcomes = append(st.report.Outcomes, te)
		if or, ok := st.sink.(metrics.OutcomeRecorder); ok {
			if err := or.RecordOutcome(metrics.OutcomeEvent{RunID: st.id, Strategy: ev.Strategy, TerminalEvent: te}); err != nil {
				st.log.Errorf("metrics outcome error: %v", err)
			}
		}
	}
	if st.bus != nil {
		st.bus.Publish(ev)
	}
	return nil
}

func (st *run) sample() {
	u := st.env.Unit
	if h := u.MaxHeight(); h > st.maxHeight {
		st.maxHeight = h
	}
	or, ok := st.sink.(metrics.OccupancyRecorder)
	if !ok {
		return
	}
	s := metrics.OccupancySample{
		RunID:    st.id,
		Strategy: st.strategy.Name(),
		Time:     st.env.Now(),
		Heights:  u.Snapshot().Occupancy(),
		Stacked:  u.Len(),
		Cash:     u.Cash(),
	}
	if err := or.RecordOccupancy(s); err != nil {
		st.log.Errorf("metrics occupancy error: %v", err)
	}
}

func (st *run) runEvent(phase events.RunPhase, err error) {
	rr, ok := st.sink.(metrics.RunRecorder)
	if !ok {
		return
	}
	ev := events.RunEvent{
		RunID:    st.id,
		Strategy: st.strategy.Name(),
		Phase:    phase,
		Time:     st.env.Now(),
		Cash:     st.env.Unit.Cash(),
		Err:      err,
	}
	if rerr := rr.RecordRun(ev); rerr != nil {
		st.log.Errorf("metrics run error: %v", rerr)
	}
}

func (st *run) finish() {
	u := st.env.Unit
	rep := st.report
	rep.Cash = u.Cash()
	rep.Sold = u.Sold()
	rep.Discarded = u.Discarded()
	rep.Remaining = u.Len()
	rep.End = st.env.Now()
	rep.Occupancy = u.Snapshot()
	rep.Stats = computeStats(rep.Outcomes, st.maxHeight)
}

// Compare runs every strategy on the same arrivals with the same options.
// Runs are sequential; the first failure stops the comparison.
func Compare(ctx context.Context, cfg Config, arrivals []model.Arrival, strategies []strategy.Strategy, opts ...Option) ([]*Report, error) {
	reports := make([]*Report, 0, len(strategies))
	for _, s := range strategies {
		r, err := NewRunner(cfg, s, opts...)
		if err != nil {
			return reports, err
		}
		rep, err := r.Run(ctx, arrivals)
		if err != nil {
			return reports, fmt.Errorf("%s: %w", s.Name(), err)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
