package dispatch

import "errors"

var (
	// ErrOriginMismatch is returned when a passenger is queued at a station
	// other than its origin.
	ErrOriginMismatch = errors.New("station does not match passenger origin")
	// ErrInvalidTimeUnit is returned for a non-positive time per station unit.
	ErrInvalidTimeUnit = errors.New("time per station unit must be positive")
	// ErrEmergencyChannel is returned when an emergency passenger is sent to a
	// holding queue instead of the emergency stack.
	ErrEmergencyChannel = errors.New("emergency passengers must use the emergency stack")
	// ErrAlreadyBoarded is returned when a boarded passenger is queued again.
	ErrAlreadyBoarded = errors.New("passenger already boarded")
	// ErrAlreadyQueued is returned when a passenger already waiting in a
	// holding queue or on the emergency stack is submitted again.
	ErrAlreadyQueued = errors.New("passenger already waiting")
)
