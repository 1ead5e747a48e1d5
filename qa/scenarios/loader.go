// Package scenarios replays scripted train workloads described in YAML and
// checks the final state of the system.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/raildispatch/core/dispatch"
	"github.com/kilianp07/raildispatch/core/model"
)

// TrainDef mirrors dispatch.Config for YAML documents.
type TrainDef struct {
	Stations           []string `yaml:"stations"`
	StartStation       string   `yaml:"start_station,omitempty"`
	TimePerStationUnit int      `yaml:"time_per_station_unit,omitempty"`
	MaxStationsPerMove int      `yaml:"max_stations_per_move,omitempty"`
	MaxWaitCycles      int      `yaml:"max_wait_cycles,omitempty"`
}

func (t TrainDef) ToConfig() dispatch.Config {
	return dispatch.Config{
		Stations:           t.Stations,
		StartStation:       t.StartStation,
		TimePerStationUnit: t.TimePerStationUnit,
		MaxStationsPerMove: t.MaxStationsPerMove,
		Holding:            dispatch.HoldingPolicy{MaxWaitCycles: t.MaxWaitCycles},
	}
}

// Step is one scripted action. Exactly one field is set.
type Step struct {
	Enqueue   *model.Request `yaml:"enqueue,omitempty"`
	Emergency *model.Request `yaml:"emergency,omitempty"`
	Cycles    int            `yaml:"cycles,omitempty"`
}

func (s Step) validate() error {
	n := 0
	if s.Enqueue != nil {
		n++
	}
	if s.Emergency != nil {
		n++
	}
	if s.Cycles > 0 {
		n++
	}
	if n != 1 {
		return fmt.Errorf("step must set exactly one of enqueue, emergency or cycles")
	}
	return nil
}

// Expected lists the checked outcomes. Unset fields are not checked.
type Expected struct {
	Station            *string        `yaml:"station,omitempty"`
	ElapsedTime        *int           `yaml:"elapsed_time,omitempty"`
	Cycles             *int           `yaml:"cycles,omitempty"`
	QueueDepth         *int           `yaml:"queue_depth,omitempty"`
	EmergenciesPending *int           `yaml:"emergencies_pending,omitempty"`
	AverageTravelTime  *float64       `yaml:"average_travel_time,omitempty"`
	Alighted           *int           `yaml:"alighted,omitempty"`
	Escorted           *int           `yaml:"escorted,omitempty"`
	Expired            *int           `yaml:"expired,omitempty"`
	Waiting            map[string]int `yaml:"waiting,omitempty"`
}

type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Train       TrainDef `yaml:"train"`
	Steps       []Step   `yaml:"steps"`
	Expected    Expected `yaml:"expected"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("%s: step %d: %w", path, i, err)
		}
	}
	return &sc, nil
}
