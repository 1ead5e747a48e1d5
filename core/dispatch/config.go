package dispatch

import (
	"fmt"

	"github.com/kilianp07/raildispatch/core/model"
)

// DefaultStations is the line used when no stations are configured.
var DefaultStations = []string{"A", "B", "C", "D"}

// HoldingPolicy controls what happens to passengers waiting at a station the
// train does not visit.
type HoldingPolicy struct {
	// MaxWaitCycles drops a waiting passenger after this many closed cycles.
	// Zero keeps passengers forever.
	MaxWaitCycles int `json:"max_wait_cycles"`
}

// Config defines the train line and movement settings.
type Config struct {
	Stations           []string      `json:"stations"`
	StartStation       string        `json:"start_station"`
	TimePerStationUnit int           `json:"time_per_station_unit"`
	MaxStationsPerMove int           `json:"max_stations_per_move"`
	Holding            HoldingPolicy `json:"holding"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if len(c.Stations) == 0 {
		c.Stations = append([]string(nil), DefaultStations...)
	}
	if c.TimePerStationUnit == 0 {
		c.TimePerStationUnit = 1
	}
}

// Validate checks the line definition and numeric bounds.
func (c Config) Validate() error {
	if c.TimePerStationUnit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTimeUnit, c.TimePerStationUnit)
	}
	if c.MaxStationsPerMove < 0 {
		return fmt.Errorf("max_stations_per_move must not be negative")
	}
	if c.Holding.MaxWaitCycles < 0 {
		return fmt.Errorf("holding.max_wait_cycles must not be negative")
	}
	topo, err := model.NewTopology(c.StationList())
	if err != nil {
		return err
	}
	if c.StartStation != "" {
		return topo.Validate(model.Station(c.StartStation))
	}
	return nil
}

// StationList converts the configured identifiers to stations.
func (c Config) StationList() []model.Station {
	out := make([]model.Station, len(c.Stations))
	for i, s := range c.Stations {
		out[i] = model.Station(s)
	}
	return out
}
