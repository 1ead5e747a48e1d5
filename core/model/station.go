package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStation is returned when a station is not part of the topology.
	ErrUnknownStation = errors.New("unknown station")
	// ErrEmptyStation is returned for an empty station identifier.
	ErrEmptyStation = errors.New("empty station identifier")
	// ErrDuplicateStation is returned when a topology lists a station twice.
	ErrDuplicateStation = errors.New("duplicate station")
	// ErrNoStations is returned when a topology is built from an empty list.
	ErrNoStations = errors.New("topology requires at least one station")
)

// Station is an opaque station identifier.
type Station string

// Topology is an ordered set of stations laid out on a single line.
// Distance between two stations is the difference of their positions.
type Topology struct {
	stations []Station
	index    map[Station]int
}

// NewTopology builds a topology preserving the order of stations.
func NewTopology(stations []Station) (*Topology, error) {
	if len(stations) == 0 {
		return nil, ErrNoStations
	}
	t := &Topology{
		stations: make([]Station, len(stations)),
		index:    make(map[Station]int, len(stations)),
	}
	for i, s := range stations {
		if s == "" {
			return nil, fmt.Errorf("position %d: %w", i, ErrEmptyStation)
		}
		if _, ok := t.index[s]; ok {
			return nil, fmt.Errorf("%s: %w", s, ErrDuplicateStation)
		}
		t.stations[i] = s
		t.index[s] = i
	}
	return t, nil
}

// Stations returns a copy of the ordered station list.
func (t *Topology) Stations() []Station {
	out := make([]Station, len(t.stations))
	copy(out, t.stations)
	return out
}

// First returns the first station of the line.
func (t *Topology) First() Station { return t.stations[0] }

// Len returns the number of stations.
func (t *Topology) Len() int { return len(t.stations) }

// Contains reports whether s belongs to the topology.
func (t *Topology) Contains(s Station) bool {
	_, ok := t.index[s]
	return ok
}

// Position returns the zero-based position of s.
func (t *Topology) Position(s Station) (int, error) {
	i, ok := t.index[s]
	if !ok {
		return 0, fmt.Errorf("%q: %w", s, ErrUnknownStation)
	}
	return i, nil
}

// At returns the station at position i.
func (t *Topology) At(i int) (Station, bool) {
	if i < 0 || i >= len(t.stations) {
		return "", false
	}
	return t.stations[i], true
}

// Distance returns the number of station units between a and b.
func (t *Topology) Distance(a, b Station) (int, error) {
	pa, err := t.Position(a)
	if err != nil {
		return 0, err
	}
	pb, err := t.Position(b)
	if err != nil {
		return 0, err
	}
	if pa > pb {
		return pa - pb, nil
	}
	return pb - pa, nil
}

// Toward returns the station reached when travelling from a toward b by at
// most hops stations. A non-positive hops value means no limit.
func (t *Topology) Toward(a, b Station, hops int) (Station, error) {
	pa, err := t.Position(a)
	if err != nil {
		return "", err
	}
	pb, err := t.Position(b)
	if err != nil {
		return "", err
	}
	if hops <= 0 {
		return b, nil
	}
	switch {
	case pb-pa > hops:
		return t.stations[pa+hops], nil
	case pa-pb > hops:
		return t.stations[pa-hops], nil
	default:
		return b, nil
	}
}

// Validate checks that every station belongs to the topology.
func (t *Topology) Validate(stations ...Station) error {
	for _, s := range stations {
		if !t.Contains(s) {
			return fmt.Errorf("%q: %w", s, ErrUnknownStation)
		}
	}
	return nil
}
