// Package metrics defines the sinks recording train dispatch metrics.
// Sinks like PromSink and InfluxSink (see infra/metrics) record cycle, trip,
// emergency and expiry events and can be combined with NewMultiSink. The
// factory helpers return a MultiSink automatically when multiple sinks are
// configured.
package metrics
