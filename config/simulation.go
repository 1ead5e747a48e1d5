package config

import (
	"fmt"
	"time"
)

// SimulationConfig paces the cycle loop.
type SimulationConfig struct {
	// Cycles stops the run after this many cycles. Zero runs until interrupted.
	Cycles int `json:"cycles"`
	// IntervalMS is the wall-clock pause between cycles.
	IntervalMS int `json:"interval_ms"`
}

// SetDefaults applies sane defaults.
func (c *SimulationConfig) SetDefaults() {
	if c.IntervalMS == 0 {
		c.IntervalMS = 1000
	}
}

// Validate checks numeric bounds.
func (c SimulationConfig) Validate() error {
	if c.Cycles < 0 {
		return fmt.Errorf("cycles must not be negative")
	}
	if c.IntervalMS < 0 {
		return fmt.Errorf("interval_ms must not be negative")
	}
	return nil
}

// Interval returns the pause between cycles.
func (c SimulationConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}
