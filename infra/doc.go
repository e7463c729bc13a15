// Package infra holds the adapters between the yard core and the outside
// world: zerolog logging, Prometheus and InfluxDB metrics, MQTT outcome
// publishing. They depend only on the interfaces of the core packages.
package infra
