package metrics

import (
	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
)

// Sink records yard actions for observability purposes.
type Sink interface {
	RecordAction(ev events.ActionEvent) error
}

// OutcomeEvent is a terminal outcome tagged with its run.
type OutcomeEvent struct {
	RunID    string
	Strategy string
	model.TerminalEvent
}

// OutcomeRecorder records containers leaving the yard.
type OutcomeRecorder interface {
	RecordOutcome(ev OutcomeEvent) error
}

// RunRecorder records the start and end of runs.
type RunRecorder interface {
	RecordRun(ev events.RunEvent) error
}

// OccupancySample is the pile heights after one arrival has been handled.
type OccupancySample struct {
	RunID    string
	Strategy string
	Time     model.Time
	Heights  map[storage.PileKey]int
	Stacked  int
	Cash     int64
}

// OccupancyRecorder records yard occupancy.
type OccupancyRecorder interface {
	RecordOccupancy(s OccupancySample) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordAction(events.ActionEvent) error { return nil }
func (NopSink) RecordOutcome(OutcomeEvent) error      { return nil }
func (NopSink) RecordRun(events.RunEvent) error       { return nil }
func (NopSink) RecordOccupancy(OccupancySample) error { return nil }
