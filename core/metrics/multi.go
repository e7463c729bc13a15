package metrics

import (
	"errors"
	"io"

	"github.com/kilianp07/yard/core/events"
)

// MultiSink fans records out to several sinks. Optional recorders are only
// forwarded to the sinks implementing them.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAction forwards the action to every sink and joins their errors.
func (m *MultiSink) RecordAction(ev events.ActionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordAction(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordOutcome forwards terminal outcomes.
func (m *MultiSink) RecordOutcome(ev OutcomeEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(OutcomeRecorder); ok {
			if err := rec.RecordOutcome(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards run boundaries.
func (m *MultiSink) RecordRun(ev events.RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(RunRecorder); ok {
			if err := rec.RecordRun(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordOccupancy forwards occupancy samples.
func (m *MultiSink) RecordOccupancy(s OccupancySample) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rec, ok := sink.(OccupancyRecorder); ok {
			if err := rec.RecordOccupancy(s); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
