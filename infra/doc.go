// Package infra holds the adapters around the train core: the zerolog
// logger, Prometheus and InfluxDB sinks, the MQTT intake and announcer and
// the Sentry monitor. They depend only on interfaces from core.
package infra
