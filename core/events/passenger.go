package events

import "github.com/kilianp07/raildispatch/core/model"

// PassengerBoarded is published when a passenger leaves its holding queue.
type PassengerBoarded struct {
	Passenger model.Passenger
	Station   model.Station
	Cycle     int
}

// EmergencyEscorted is published for every emergency served. The train does
// not move for emergencies.
type EmergencyEscorted struct {
	Passenger model.Passenger
	Station   model.Station
	Cycle     int
}

// PassengerAlighted is published when a passenger reaches its destination.
type PassengerAlighted struct {
	Passenger  model.Passenger
	Station    model.Station
	TravelTime int
	Cycle      int
}

// PassengerExpired is published when the holding policy drops a passenger.
type PassengerExpired struct {
	Passenger    model.Passenger
	Station      model.Station
	WaitedCycles int
	Cycle        int
}
