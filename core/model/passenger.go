package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrSameStation is returned when a passenger's origin equals its destination.
var ErrSameStation = errors.New("origin and destination must differ")

// Passenger is a travel request moving through the holding queues, the
// dispatch queue and finally off the train.
type Passenger struct {
	ID          string  `json:"id"`
	Origin      Station `json:"origin"`
	Destination Station `json:"destination"`
	// Priority is the distance between the train and Destination at the
	// last recalculation. Lower is served sooner.
	Priority    int  `json:"priority"`
	Boarded     bool `json:"boarded"`
	Emergency   bool `json:"emergency"`
	RequestTime int  `json:"request_time"`
}

// NewPassenger creates a regular passenger.
func NewPassenger(origin, destination Station, requestTime int) (*Passenger, error) {
	if origin == "" || destination == "" {
		return nil, ErrEmptyStation
	}
	if origin == destination {
		return nil, fmt.Errorf("%s: %w", origin, ErrSameStation)
	}
	return &Passenger{
		ID:          uuid.NewString(),
		Origin:      origin,
		Destination: destination,
		RequestTime: requestTime,
	}, nil
}

// NewEmergencyPassenger creates a passenger served through the emergency
// channel. Emergencies always carry priority 0.
func NewEmergencyPassenger(origin, destination Station, requestTime int) (*Passenger, error) {
	p, err := NewPassenger(origin, destination, requestTime)
	if err != nil {
		return nil, err
	}
	p.Emergency = true
	p.Priority = 0
	return p, nil
}

// String implements fmt.Stringer.
func (p *Passenger) String() string {
	return fmt.Sprintf("%s[%s->%s]", p.ID, p.Origin, p.Destination)
}

// Request is an unvalidated passenger request as produced by generators or
// received from MQTT and HTTP.
type Request struct {
	ID          string  `json:"id,omitempty" yaml:"id,omitempty"`
	Origin      Station `json:"origin" yaml:"origin"`
	Destination Station `json:"destination" yaml:"destination"`
	Emergency   bool    `json:"emergency,omitempty" yaml:"emergency,omitempty"`
	RequestTime int     `json:"request_time,omitempty" yaml:"request_time,omitempty"`
}

// Passenger validates the request and builds the matching passenger.
func (r Request) Passenger() (*Passenger, error) {
	var (
		p   *Passenger
		err error
	)
	if r.Emergency {
		p, err = NewEmergencyPassenger(r.Origin, r.Destination, r.RequestTime)
	} else {
		p, err = NewPassenger(r.Origin, r.Destination, r.RequestTime)
	}
	if err != nil {
		return nil, err
	}
	if r.ID != "" {
		p.ID = r.ID
	}
	return p, nil
}
