package metrics

import "time"

// CycleRecord summarises one closed dispatch cycle.
type CycleRecord struct {
	Cycle             int
	Station           string
	Boarded           int
	Emergencies       int
	Dispatched        bool
	ElapsedTime       int
	QueueDepth        int
	Waiting           int
	AverageTravelTime float64
	Time              time.Time
}

// MetricsSink records cycle results for observability purposes.
type MetricsSink interface {
	RecordCycle(rec CycleRecord) error
}

// TripRecord describes one normal dispatch decision.
type TripRecord struct {
	PassengerID string
	Origin      string
	Destination string
	From        string
	To          string
	Cost        int
	Alighted    bool
	Cycle       int
	Time        time.Time
}

// TripRecorder records normal dispatch trips.
type TripRecorder interface {
	RecordTrip(rec TripRecord) error
}

// EmergencyRecord describes an escorted emergency passenger.
type EmergencyRecord struct {
	PassengerID string
	Origin      string
	Destination string
	Station     string
	Cycle       int
	Time        time.Time
}

// EmergencyRecorder records emergency escorts.
type EmergencyRecorder interface {
	RecordEmergency(rec EmergencyRecord) error
}

// ExpiryRecord describes a waiting passenger dropped by the holding policy.
type ExpiryRecord struct {
	PassengerID  string
	Station      string
	WaitedCycles int
	Cycle        int
	Time         time.Time
}

// ExpiryRecorder records expired passengers.
type ExpiryRecorder interface {
	RecordExpiry(rec ExpiryRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordCycle(CycleRecord) error         { return nil }
func (NopSink) RecordTrip(TripRecord) error           { return nil }
func (NopSink) RecordEmergency(EmergencyRecord) error { return nil }
func (NopSink) RecordExpiry(ExpiryRecord) error       { return nil }
