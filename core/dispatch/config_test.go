package dispatch

import (
	"errors"
	"testing"

	"github.com/kilianp07/raildispatch/core/model"
)

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	if len(c.Stations) != 4 || c.TimePerStationUnit != 1 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"zero unit", Config{Stations: []string{"A", "B"}}, ErrInvalidTimeUnit},
		{"negative unit", Config{Stations: []string{"A", "B"}, TimePerStationUnit: -1}, ErrInvalidTimeUnit},
		{"duplicate", Config{Stations: []string{"A", "A"}, TimePerStationUnit: 1}, model.ErrDuplicateStation},
		{"bad start", Config{Stations: []string{"A", "B"}, TimePerStationUnit: 1, StartStation: "Z"}, model.ErrUnknownStation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("got %v want %v", err, tt.want)
			}
		})
	}
	neg := Config{Stations: []string{"A"}, TimePerStationUnit: 1, Holding: HoldingPolicy{MaxWaitCycles: -1}}
	if err := neg.Validate(); err == nil {
		t.Fatalf("negative max wait should fail")
	}
}
