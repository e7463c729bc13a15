// Package metrics defines the observability contract of the yard. A Sink
// records every action; sinks may also implement OutcomeRecorder,
// RunRecorder or OccupancyRecorder. Sinks are combined with NewMultiSink and
// built from configuration through NewSink. Implementations backed by
// Prometheus, InfluxDB and MQTT live under infra/.
package metrics
