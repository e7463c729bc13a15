package metrics

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/yard/core/events"
	coremetrics "github.com/kilianp07/yard/core/metrics"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
	"github.com/kilianp07/yard/infra/logger"
)

// Epoch anchors simulated ticks on the wall clock: tick t is written at
// Epoch plus t seconds.
var Epoch = time.Unix(0, 0).UTC()

func tickTime(t model.Time) time.Time { return Epoch.Add(time.Duration(t) * time.Second) }

// InfluxSink writes yard events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// InfluxConfig holds the InfluxDB connection settings.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client resources.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAction writes one yard_action point.
func (s *InfluxSink) RecordAction(ev events.ActionEvent) error {
	p := write.NewPointWithMeasurement("yard_action").
		AddTag("run_id", ev.RunID).
		AddTag("strategy", ev.Strategy).
		AddTag("type", string(ev.Type)).
		AddTag("class", strconv.Itoa(int(ev.Container.Class))).
		AddField("container_id", int64(ev.Container.ID)).
		AddField("seq", ev.Seq).
		AddField("cash", ev.Cash).
		SetTime(tickTime(ev.Time))
	if ev.From != nil {
		p = p.AddTag("from", ev.From.String())
	}
	if ev.To != nil {
		p = p.AddTag("to", ev.To.String())
	}
	return s.write(p)
}

// RecordOutcome writes one yard_outcome point.
func (s *InfluxSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	p := write.NewPointWithMeasurement("yard_outcome").
		AddTag("run_id", ev.RunID).
		AddTag("strategy", ev.Strategy).
		AddTag("outcome", ev.Outcome.String()).
		AddField("container_id", int64(ev.ContainerID)).
		AddField("price", ev.Price).
		AddField("dwell", int64(ev.Dwell())).
		SetTime(tickTime(ev.Time))
	return s.write(p)
}

// RecordOccupancy writes one yard_occupancy point with a field per pile.
func (s *InfluxSink) RecordOccupancy(o coremetrics.OccupancySample) error {
	p := write.NewPointWithMeasurement("yard_occupancy").
		AddTag("run_id", o.RunID).
		AddTag("strategy", o.Strategy).
		AddField("stacked", o.Stacked).
		AddField("cash", o.Cash).
		SetTime(tickTime(o.Time))
	keys := make([]storage.PileKey, 0, len(o.Heights))
	for k := range o.Heights {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	for _, k := range keys {
		p = p.AddField("pile_"+strconv.Itoa(int(k.Class))+"_"+strconv.Itoa(k.Index), o.Heights[k])
	}
	return s.write(p)
}

// RecordRun writes one yard_run point.
func (s *InfluxSink) RecordRun(ev events.RunEvent) error {
	errStr := ""
	if ev.Err != nil {
		errStr = ev.Err.Error()
	}
	p := write.NewPointWithMeasurement("yard_run").
		AddTag("run_id", ev.RunID).
		AddTag("strategy", ev.Strategy).
		AddTag("phase", string(ev.Phase)).
		AddField("cash", ev.Cash).
		AddField("error", errStr).
		SetTime(tickTime(ev.Time))
	return s.write(p)
}
