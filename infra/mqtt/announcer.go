package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/raildispatch/core/events"
	"github.com/kilianp07/raildispatch/internal/eventbus"
)

// Message is the JSON envelope of every announcement.
type Message struct {
	MessageID   string `json:"message_id"`
	Event       string `json:"event"`
	Timestamp   int64  `json:"timestamp"`
	Cycle       int    `json:"cycle"`
	PassengerID string `json:"passenger_id,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	Station     string `json:"station,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Cost        int    `json:"cost,omitempty"`
	TravelTime  int    `json:"travel_time,omitempty"`
	Waited      int    `json:"waited_cycles,omitempty"`
}

// Announcement maps a bus event to its topic suffix and message. ok is false
// for events that are not announced.
func Announcement(ev eventbus.Event) (suffix string, msg Message, ok bool) {
	msg = Message{MessageID: uuid.NewString(), Timestamp: time.Now().UnixMilli()}
	switch e := ev.(type) {
	case events.PassengerBoarded:
		suffix, msg.Event, msg.Cycle = TopicBoarded, "passenger_boarded", e.Cycle
		msg.PassengerID, msg.Station = e.Passenger.ID, string(e.Station)
		msg.Origin, msg.Destination = string(e.Passenger.Origin), string(e.Passenger.Destination)
	case events.PassengerAlighted:
		suffix, msg.Event, msg.Cycle = TopicAlighted, "passenger_alighted", e.Cycle
		msg.PassengerID, msg.Station, msg.TravelTime = e.Passenger.ID, string(e.Station), e.TravelTime
		msg.Origin, msg.Destination = string(e.Passenger.Origin), string(e.Passenger.Destination)
	case events.EmergencyEscorted:
		suffix, msg.Event, msg.Cycle = TopicEmergency, "emergency_escorted", e.Cycle
		msg.PassengerID, msg.Station = e.Passenger.ID, string(e.Station)
		msg.Origin, msg.Destination = string(e.Passenger.Origin), string(e.Passenger.Destination)
	case events.TrainMoved:
		suffix, msg.Event, msg.Cycle = TopicPosition, "train_moved", e.Cycle
		msg.From, msg.To, msg.Station, msg.Cost = string(e.From), string(e.To), string(e.To), e.Cost
	case events.PassengerExpired:
		suffix, msg.Event, msg.Cycle = TopicExpired, "passenger_expired", e.Cycle
		msg.PassengerID, msg.Station, msg.Waited = e.Passenger.ID, string(e.Station), e.WaitedCycles
	default:
		return "", Message{}, false
	}
	return suffix, msg, true
}

// Announce publishes ev when it maps to an announcement topic.
func (p *PahoClient) Announce(ev eventbus.Event) error {
	suffix, msg, ok := Announcement(ev)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.publish(suffix, payload)
}

// Announcer publishes bus events.
type Announcer interface {
	Announce(ev eventbus.Event) error
}

// RunAnnouncer forwards bus events to a until ctx is canceled or the bus is
// closed. The returned channel is closed once it has exited.
func RunAnnouncer(ctx context.Context, bus eventbus.EventBus, a Announcer) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || a == nil {
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
				// publish already retried and reported the failure
				_ = a.Announce(ev)
			}
		}
	}()
	return done
}
