package scenarios

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/raildispatch/core/dispatch"
	"github.com/kilianp07/raildispatch/core/logger"
	"github.com/kilianp07/raildispatch/infra/metrics"
)

// Result is the outcome of a scenario run.
type Result struct {
	Status   dispatch.Status
	Reports  []dispatch.CycleReport
	Alighted int
	Escorted int
	Expired  int
	// Registry holds the metrics recorded during the run.
	Registry *prometheus.Registry
}

// Run replays sc on a fresh train system.
func Run(sc *Scenario) (*Result, error) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		return nil, fmt.Errorf("prom sink: %w", err)
	}
	ts, err := dispatch.NewFromConfig(sc.Train.ToConfig(),
		dispatch.WithLogger(logger.NopLogger{}),
		dispatch.WithMetrics(sink),
	)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	res := &Result{Registry: reg}
	for i, st := range sc.Steps {
		switch {
		case st.Enqueue != nil:
			req := *st.Enqueue
			req.Emergency = false
			if _, err := ts.Submit(req); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
		case st.Emergency != nil:
			req := *st.Emergency
			req.Emergency = true
			if _, err := ts.Submit(req); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
		default:
			for n := 0; n < st.Cycles; n++ {
				rep := ts.RunCycle()
				res.Reports = append(res.Reports, rep)
				if rep.Dispatch != nil && rep.Dispatch.Alighted {
					res.Alighted++
				}
				res.Escorted += len(rep.Emergencies)
				res.Expired += len(rep.Expired)
			}
		}
	}
	res.Status = ts.Status()
	return res, nil
}

// Check compares res with the expectations and returns one message per
// mismatch.
func (e Expected) Check(res *Result) []string {
	var out []string
	checkInt := func(name string, want *int, got int) {
		if want != nil && *want != got {
			out = append(out, fmt.Sprintf("%s: expected %d, got %d", name, *want, got))
		}
	}
	if e.Station != nil && *e.Station != string(res.Status.Station) {
		out = append(out, fmt.Sprintf("station: expected %s, got %s", *e.Station, res.Status.Station))
	}
	checkInt("elapsed_time", e.ElapsedTime, res.Status.ElapsedTime)
	checkInt("cycles", e.Cycles, res.Status.Cycles)
	checkInt("queue_depth", e.QueueDepth, res.Status.QueueDepth)
	checkInt("emergencies_pending", e.EmergenciesPending, res.Status.EmergenciesPending)
	checkInt("alighted", e.Alighted, res.Alighted)
	checkInt("escorted", e.Escorted, res.Escorted)
	checkInt("expired", e.Expired, res.Expired)
	if e.AverageTravelTime != nil && math.Abs(*e.AverageTravelTime-res.Status.Travel.Mean) > 1e-9 {
		out = append(out, fmt.Sprintf("average_travel_time: expected %g, got %g", *e.AverageTravelTime, res.Status.Travel.Mean))
	}
	for station, want := range e.Waiting {
		var got int
		for s, n := range res.Status.Waiting {
			if string(s) == station {
				got = n
			}
		}
		if got != want {
			out = append(out, fmt.Sprintf("waiting[%s]: expected %d, got %d", station, want, got))
		}
	}
	return out
}
