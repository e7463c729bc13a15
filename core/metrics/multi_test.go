package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/kilianp07/yard/core/events"
)

type recordSink struct {
	actions  int
	outcomes int
	err      error
}

func (r *recordSink) RecordAction(events.ActionEvent) error {
	r.actions++
	return r.err
}

func (r *recordSink) RecordOutcome(OutcomeEvent) error {
	r.outcomes++
	return nil
}

type actionOnly struct{ count int }

func (a *actionOnly) RecordAction(events.ActionEvent) error {
	a.count++
	return nil
}

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &actionOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordAction(events.ActionEvent{}); err != nil {
		t.Fatalf("record action: %v", err)
	}
	if err := m.RecordOutcome(OutcomeEvent{}); err != nil {
		t.Fatalf("record outcome: %v", err)
	}
	if err := m.RecordRun(events.RunEvent{}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if s1.actions != 1 || s1.outcomes != 1 || s2.count != 1 {
		t.Fatalf("records not forwarded: %+v %+v", s1, s2)
	}
}

func TestMultiSink_KeepsForwardingOnError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &actionOnly{}
	err := NewMultiSink(s1, s2).RecordAction(events.ActionEvent{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if s2.count != 1 {
		t.Fatal("second sink skipped after first failed")
	}
}

type closingSink struct {
	actionOnly
	closed bool
}

func (c *closingSink) Close() error {
	c.closed = true
	return nil
}

func TestMultiSink_Close(t *testing.T) {
	c := &closingSink{}
	if err := NewMultiSink(&actionOnly{}, c).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !c.closed {
		t.Fatal("closer not closed")
	}
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordAction(ev events.ActionEvent) error {
	return m.Called(ev).Error(0)
}

func (m *mockRecorder) RecordOccupancy(s OccupancySample) error {
	return m.Called(s).Error(0)
}

func TestMultiSink_ForwardsOccupancy(t *testing.T) {
	rec := &mockRecorder{}
	sample := OccupancySample{RunID: "r1", Strategy: "expert", Stacked: 3}
	rec.On("RecordOccupancy", sample).Return(nil).Once()

	if err := NewMultiSink(rec, &actionOnly{}).RecordOccupancy(sample); err != nil {
		t.Fatalf("record occupancy: %v", err)
	}
	rec.AssertExpectations(t)
	rec.AssertNotCalled(t, "RecordAction", mock.Anything)
}
