// Package generator produces synthetic passenger requests for simulation
// runs. Arrivals per cycle follow a Poisson distribution.
package generator

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/raildispatch/core/model"
)

// Config holds the generator parameters.
type Config struct {
	Enabled bool `json:"enabled"`
	// Seed makes runs reproducible. Zero seeds from the clock.
	Seed int64 `json:"seed"`
	// ArrivalsPerCycle is the Poisson mean of requests per cycle.
	ArrivalsPerCycle float64 `json:"arrivals_per_cycle"`
	// EmergencyRate is the probability that a request is an emergency.
	EmergencyRate float64 `json:"emergency_rate"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ArrivalsPerCycle == 0 {
		c.ArrivalsPerCycle = 0.8
	}
}

// Validate checks numeric bounds.
func (c Config) Validate() error {
	if c.ArrivalsPerCycle < 0 {
		return fmt.Errorf("arrivals_per_cycle must not be negative")
	}
	if c.EmergencyRate < 0 || c.EmergencyRate > 1 {
		return fmt.Errorf("emergency_rate must be between 0 and 1")
	}
	return nil
}

// Generator draws random requests between stations of a line.
type Generator struct {
	cfg      Config
	stations []model.Station
	rng      *rand.Rand
	arrivals distuv.Poisson
}

// New returns a generator for stations. At least two stations are required
// since origin and destination must differ.
func New(cfg Config, stations []model.Station) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(stations) < 2 {
		return nil, fmt.Errorf("generator needs at least two stations, got %d", len(stations))
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	src := rand.NewPCG(uint64(seed), uint64(seed))
	return &Generator{
		cfg:      cfg,
		stations: append([]model.Station(nil), stations...),
		rng:      rand.New(src),
		arrivals: distuv.Poisson{Lambda: cfg.ArrivalsPerCycle, Src: src},
	}, nil
}

// Next returns the requests arriving during cycle.
func (g *Generator) Next(cycle int) []model.Request {
	if g.arrivals.Lambda <= 0 {
		return nil
	}
	n := int(g.arrivals.Rand())
	if n == 0 {
		return nil
	}
	reqs := make([]model.Request, n)
	for i := range reqs {
		o := g.rng.IntN(len(g.stations))
		d := g.rng.IntN(len(g.stations) - 1)
		if d >= o {
			d++
		}
		reqs[i] = model.Request{
			Origin:      g.stations[o],
			Destination: g.stations[d],
			Emergency:   g.cfg.EmergencyRate > 0 && g.rng.Float64() < g.cfg.EmergencyRate,
			RequestTime: cycle,
		}
	}
	return reqs
}
