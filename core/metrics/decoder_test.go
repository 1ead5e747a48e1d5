package metrics_test

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"

	metrics "github.com/kilianp07/raildispatch/core/metrics"
	inframetrics "github.com/kilianp07/raildispatch/infra/metrics"
)

// Test decoding from YAML with multiple sinks.
func TestMetricsConfigDecodeYAML(t *testing.T) {
	data := `sinks:
  - type: nop
  - type: nop
`
	var cfg metrics.Config
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	s, err := metrics.NewMetricsSink(cfg.Sinks)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := s.(*metrics.MultiSink); !ok {
		t.Fatalf("expected MultiSink")
	}
}

// Test decoding prometheus and influx sinks with their options.
func TestMetricsConfigDecodeYAML_Backends(t *testing.T) {
	data := `sinks:
  - type: prometheus
    conf:
      prometheus_port: ":9200"
  - type: influx
    conf:
      url: http://127.0.0.1:1
      token: t
      org: o
      bucket: b
`
	var cfg metrics.Config
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	if got := cfg.PrometheusAddress(); got != ":9200" {
		t.Fatalf("prometheus address = %q", got)
	}
	s, err := metrics.NewMetricsSink(cfg.Sinks)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	m, ok := s.(*metrics.MultiSink)
	if !ok || len(m.Sinks) != 2 {
		t.Fatalf("expected MultiSink with 2 sinks, got %T", s)
	}
	if _, ok := m.Sinks[0].(*inframetrics.PromSink); !ok {
		t.Fatalf("expected PromSink, got %T", m.Sinks[0])
	}
	// unreachable influx falls back to a nop sink
	if _, ok := m.Sinks[1].(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink fallback, got %T", m.Sinks[1])
	}
}

// Test decoding a prometheus sink whose options have the wrong type.
func TestMetricsConfigDecodeJSON_BadConf(t *testing.T) {
	data := `{"sinks":[{"type":"prometheus","conf":{"prometheus_port":{"a":1}}}]}`
	var cfg metrics.Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if _, err := metrics.NewMetricsSink(cfg.Sinks); err == nil {
		t.Fatalf("expected decode error")
	}
}

// Test decoding from JSON with invalid sink type.
func TestMetricsConfigDecodeJSON_Invalid(t *testing.T) {
	data := `{"sinks":[{"type":"missing"}]}`
	var cfg metrics.Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if _, err := metrics.NewMetricsSink(cfg.Sinks); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
