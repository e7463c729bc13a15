package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/factory"
	coremetrics "github.com/kilianp07/yard/core/metrics"
	"github.com/kilianp07/yard/infra/logger"
)

// OutcomePublisher is a metrics sink publishing yard events to a broker.
//
// Topics, under the configured prefix:
//   - <prefix>/<strategy>/outcomes: one message per container leaving the yard
//   - <prefix>/<strategy>/runs: run start and end, retained
//   - <prefix>/<strategy>/actions: every action, only when Actions is set
type OutcomePublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	actions    bool
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// OutcomeMessage is the payload published for a terminal outcome.
type OutcomeMessage struct {
	RunID       string `json:"run_id"`
	ContainerID int64  `json:"container_id"`
	Class       int    `json:"class"`
	Outcome     string `json:"outcome"`
	Time        int64  `json:"time"`
	Dwell       int64  `json:"dwell"`
	Price       int64  `json:"price"`
}

// RunMessage is the payload published at run boundaries.
type RunMessage struct {
	RunID string `json:"run_id"`
	Phase string `json:"phase"`
	Time  int64  `json:"time"`
	Cash  int64  `json:"cash"`
	Error string `json:"error,omitempty"`
}

// NewOutcomePublisher connects to the broker.
func NewOutcomePublisher(cfg Config) (*OutcomePublisher, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	p := &OutcomePublisher{
		cli:        c,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		actions:    cfg.Actions,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}
	if p.prefix == "" {
		p.prefix = DefaultTopicPrefix
	}
	if p.maxRetries <= 0 {
		p.maxRetries = 3
	}
	if p.backoff <= 0 {
		p.backoff = 100 * time.Millisecond
	}
	return p, nil
}

func (p *OutcomePublisher) topic(strategy, kind string) string {
	if strategy == "" {
		strategy = "unknown"
	}
	return fmt.Sprintf("%s/%s/%s", p.prefix, strategy, kind)
}

func (p *OutcomePublisher) publish(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.log.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// RecordAction publishes the action when action publishing is enabled.
func (p *OutcomePublisher) RecordAction(ev events.ActionEvent) error {
	if !p.actions {
		return nil
	}
	return p.publish(p.topic(ev.Strategy, "actions"), false, ev)
}

// RecordOutcome publishes a terminal outcome.
func (p *OutcomePublisher) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	msg := OutcomeMessage{
		RunID:       ev.RunID,
		ContainerID: int64(ev.ContainerID),
		Class:       int(ev.Class),
		Outcome:     ev.Outcome.String(),
		Time:        int64(ev.Time),
		Dwell:       int64(ev.Dwell()),
		Price:       ev.Price,
	}
	return p.publish(p.topic(ev.Strategy, "outcomes"), false, msg)
}

// RecordRun publishes a retained run boundary message.
func (p *OutcomePublisher) RecordRun(ev events.RunEvent) error {
	msg := RunMessage{
		RunID: ev.RunID,
		Phase: string(ev.Phase),
		Time:  int64(ev.Time),
		Cash:  ev.Cash,
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	return p.publish(p.topic(ev.Strategy, "runs"), true, msg)
}

// Close gracefully closes the MQTT connection.
func (p *OutcomePublisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}

func init() {
	_ = coremetrics.RegisterSink("mqtt", func(conf map[string]any) (coremetrics.Sink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewOutcomePublisher(c)
	})
}
