package monitoring

import (
	"testing"

	coremon "github.com/kilianp07/raildispatch/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", m)
	}
}

func TestNewSentryMonitorInvalidDSN(t *testing.T) {
	if _, err := NewSentryMonitor(Config{DSN: "not a dsn"}); err == nil {
		t.Fatalf("expected error for malformed dsn")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{TracesSampleRate: 1.5}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
	if err := (Config{TracesSampleRate: 0.2}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
