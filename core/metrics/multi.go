package metrics

import "errors"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCycle forwards the record to all sinks. A failing sink does not
// stop the others; the errors are joined.
func (m *MultiSink) RecordCycle(rec CycleRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordCycle(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordTrip forwards trips to sinks implementing TripRecorder.
func (m *MultiSink) RecordTrip(rec TripRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(TripRecorder); ok {
			if err := r.RecordTrip(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordEmergency forwards emergency escorts.
func (m *MultiSink) RecordEmergency(rec EmergencyRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(EmergencyRecorder); ok {
			if err := r.RecordEmergency(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordExpiry forwards expiries.
func (m *MultiSink) RecordExpiry(rec ExpiryRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(ExpiryRecorder); ok {
			if err := r.RecordExpiry(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
