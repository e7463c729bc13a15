package metrics

import "github.com/kilianp07/yard/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr, when set, serves the default registry on /metrics.
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
}
