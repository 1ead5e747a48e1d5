package dispatch

import (
	"fmt"
	"time"

	"github.com/kilianp07/raildispatch/core/logger"
	"github.com/kilianp07/raildispatch/core/metrics"
	"github.com/kilianp07/raildispatch/core/model"
	"github.com/kilianp07/raildispatch/internal/eventbus"
)

// Option configures a TrainSystem.
type Option func(*TrainSystem) error

// WithLogger sets the component logger.
func WithLogger(l logger.Logger) Option {
	return func(ts *TrainSystem) error {
		if l != nil {
			ts.log = l
		}
		return nil
	}
}

// WithMetrics sets the sink receiving cycle, trip, emergency and expiry records.
func WithMetrics(s metrics.MetricsSink) Option {
	return func(ts *TrainSystem) error {
		if s != nil {
			ts.sink = s
		}
		return nil
	}
}

// WithEventBus publishes train events on bus.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(ts *TrainSystem) error {
		ts.bus = bus
		return nil
	}
}

// WithStartStation places the train at s instead of the first station.
func WithStartStation(s model.Station) Option {
	return func(ts *TrainSystem) error {
		if err := ts.topo.Validate(s); err != nil {
			return fmt.Errorf("start station: %w", err)
		}
		ts.position = s
		return nil
	}
}

// WithMaxStationsPerMove caps how far a single dispatch moves the train.
// Zero means the train always reaches the destination in one move.
func WithMaxStationsPerMove(n int) Option {
	return func(ts *TrainSystem) error {
		if n < 0 {
			return fmt.Errorf("max stations per move must not be negative: %d", n)
		}
		ts.maxHops = n
		return nil
	}
}

// WithHoldingPolicy sets the policy applied to waiting passengers.
func WithHoldingPolicy(p HoldingPolicy) Option {
	return func(ts *TrainSystem) error {
		if p.MaxWaitCycles < 0 {
			return fmt.Errorf("max wait cycles must not be negative: %d", p.MaxWaitCycles)
		}
		ts.policy = p
		return nil
	}
}

// WithClock overrides the time source used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(ts *TrainSystem) error {
		if now != nil {
			ts.now = now
		}
		return nil
	}
}
