package metrics

import (
	"context"

	"github.com/kilianp07/raildispatch/core/events"
	"github.com/kilianp07/raildispatch/internal/eventbus"
)

// EventRecorder counts bus events by type name.
type EventRecorder interface {
	RecordEvent(name string)
}

// EventName returns the metric label used for ev, or "" for unknown events.
func EventName(ev eventbus.Event) string {
	switch ev.(type) {
	case events.PassengerBoarded:
		return "passenger_boarded"
	case events.EmergencyEscorted:
		return "emergency_escorted"
	case events.PassengerAlighted:
		return "passenger_alighted"
	case events.PassengerExpired:
		return "passenger_expired"
	case events.TrainMoved:
		return "train_moved"
	case events.CycleCompleted:
		return "cycle_completed"
	default:
		return ""
	}
}

// StartEventCollector subscribes to the event bus and counts events on rec.
// It stops when the context is canceled or the bus is closed. The returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, rec EventRecorder) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || rec == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if name := EventName(ev); name != "" {
					rec.RecordEvent(name)
				}
			}
		}
	}()
	return done
}
