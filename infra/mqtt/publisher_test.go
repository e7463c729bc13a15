package mqtt

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/factory"
	coremetrics "github.com/kilianp07/yard/core/metrics"
	"github.com/kilianp07/yard/core/model"
)

func newTestPublisher(t *testing.T, mc *mockClient, cfg Config) *OutcomePublisher {
	t.Helper()
	useMock(t, mc)
	if cfg.Broker == "" {
		cfg.Broker = "tcp://localhost:1883"
	}
	p, err := NewOutcomePublisher(cfg)
	require.NoError(t, err)
	return p
}

func TestOutcomePublisher_RecordOutcome(t *testing.T) {
	mc := &mockClient{}
	p := newTestPublisher(t, mc, Config{ClientID: "id", QoS: 1})

	err := p.RecordOutcome(coremetrics.OutcomeEvent{
		RunID:    "r1",
		Strategy: "expert",
		TerminalEvent: model.TerminalEvent{
			ContainerID: 9, Class: 2, Outcome: model.OutcomeSold, Time: 14, Arrival: 4, Price: 70,
		},
	})
	require.NoError(t, err)
	require.Len(t, mc.published, 1)
	msg := mc.published[0]
	assert.Equal(t, "yard/expert/outcomes", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.False(t, msg.retained)

	var got OutcomeMessage
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, OutcomeMessage{
		RunID: "r1", ContainerID: 9, Class: 2, Outcome: "sold", Time: 14, Dwell: 10, Price: 70,
	}, got)
}

func TestOutcomePublisher_ActionsAreOptIn(t *testing.T) {
	mc := &mockClient{}
	p := newTestPublisher(t, mc, Config{TopicPrefix: "site1"})
	require.NoError(t, p.RecordAction(events.ActionEvent{Strategy: "simple", Type: model.ActionMove}))
	assert.Empty(t, mc.published)

	p.actions = true
	require.NoError(t, p.RecordAction(events.ActionEvent{Strategy: "simple", Type: model.ActionMove}))
	require.Len(t, mc.published, 1)
	assert.Equal(t, "site1/simple/actions", mc.published[0].topic)
}

func TestOutcomePublisher_RunIsRetained(t *testing.T) {
	mc := &mockClient{}
	p := newTestPublisher(t, mc, Config{})
	require.NoError(t, p.RecordRun(events.RunEvent{
		RunID: "r1", Strategy: "simple", Phase: events.RunFinished, Time: 40, Cash: 12, Err: errors.New("cancelled"),
	}))
	require.Len(t, mc.published, 1)
	assert.True(t, mc.published[0].retained)

	var got RunMessage
	require.NoError(t, json.Unmarshal(mc.published[0].payload, &got))
	assert.Equal(t, "finished", got.Phase)
	assert.Equal(t, "cancelled", got.Error)

	require.NoError(t, p.Close())
	assert.True(t, mc.disconnected)
}

func TestOutcomePublisher_Retries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{errors.New("net fail"), nil}}
	p := newTestPublisher(t, mc, Config{MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, p.RecordRun(events.RunEvent{Strategy: "simple", Phase: events.RunStarted}))
	assert.Len(t, mc.published, 2)
}

func TestOutcomePublisher_GivesUp(t *testing.T) {
	fail := errors.New("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail}}
	p := newTestPublisher(t, mc, Config{MaxRetries: 1, BackoffMS: 1})
	err := p.RecordRun(events.RunEvent{Strategy: "simple", Phase: events.RunStarted})
	assert.ErrorIs(t, err, fail)
	assert.Len(t, mc.published, 2)
}

func TestOutcomePublisher_Registered(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	s, err := coremetrics.NewSink([]factory.ModuleConfig{{
		Type: "mqtt",
		Conf: map[string]any{"broker": "tcp://localhost:1883", "client_id": "yard", "qos": 1},
	}})
	require.NoError(t, err)
	assert.IsType(t, &OutcomePublisher{}, s)
}
