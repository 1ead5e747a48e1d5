package journal

import (
	"context"
	"slices"
	"time"

	"github.com/kilianp07/raildispatch/core/dispatch"
)

// Trip is the single normal dispatch of a cycle.
type Trip struct {
	PassengerID string `json:"passenger_id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	From        string `json:"from"`
	To          string `json:"to"`
	Cost        int    `json:"cost"`
	Alighted    bool   `json:"alighted"`
}

// Record captures one closed cycle.
type Record struct {
	// RunID identifies the service run that produced the record. Cycle
	// numbers restart with every run.
	RunID             string    `json:"run_id,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
	Cycle             int       `json:"cycle"`
	StartStation      string    `json:"start_station"`
	EndStation        string    `json:"end_station"`
	Boarded           []string  `json:"boarded,omitempty"`
	Emergencies       []string  `json:"emergencies,omitempty"`
	Trip              *Trip     `json:"trip,omitempty"`
	Expired           []string  `json:"expired,omitempty"`
	ElapsedTime       int       `json:"elapsed_time"`
	QueueDepth        int       `json:"queue_depth"`
	Waiting           int       `json:"waiting"`
	AverageTravelTime float64   `json:"average_travel_time"`
}

// FromReport converts a cycle report into a journal record.
func FromReport(rep dispatch.CycleReport) Record {
	rec := Record{
		Timestamp:         rep.Time,
		Cycle:             rep.Cycle,
		StartStation:      string(rep.StartStation),
		EndStation:        string(rep.EndStation),
		ElapsedTime:       rep.ElapsedTime,
		QueueDepth:        rep.QueueDepth,
		Waiting:           rep.Waiting,
		AverageTravelTime: rep.AverageTravelTime,
	}
	for _, p := range rep.Boarded {
		rec.Boarded = append(rec.Boarded, p.ID)
	}
	for _, p := range rep.Emergencies {
		rec.Emergencies = append(rec.Emergencies, p.ID)
	}
	for _, e := range rep.Expired {
		rec.Expired = append(rec.Expired, e.Passenger.ID)
	}
	if d := rep.Dispatch; d != nil {
		rec.Trip = &Trip{
			PassengerID: d.Passenger.ID,
			Origin:      string(d.Passenger.Origin),
			Destination: string(d.Passenger.Destination),
			From:        string(d.From),
			To:          string(d.To),
			Cost:        d.Cost,
			Alighted:    d.Alighted,
		}
	}
	return rec
}

// Passengers returns every passenger id referenced by the record.
func (r Record) Passengers() []string {
	ids := make([]string, 0, len(r.Boarded)+len(r.Emergencies)+len(r.Expired)+1)
	ids = append(ids, r.Boarded...)
	ids = append(ids, r.Emergencies...)
	ids = append(ids, r.Expired...)
	if r.Trip != nil {
		ids = append(ids, r.Trip.PassengerID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// Query defines filters for retrieving records. Zero values match all.
type Query struct {
	RunID       string
	FromCycle   int
	ToCycle     int
	PassengerID string
	// Station matches cycles that started or ended at the station.
	Station string
}

// Match reports whether rec satisfies q.
func (q Query) Match(rec Record) bool {
	if q.RunID != "" && rec.RunID != q.RunID {
		return false
	}
	if q.FromCycle > 0 && rec.Cycle < q.FromCycle {
		return false
	}
	if q.ToCycle > 0 && rec.Cycle > q.ToCycle {
		return false
	}
	if q.Station != "" && rec.StartStation != q.Station && rec.EndStation != q.Station {
		return false
	}
	if q.PassengerID != "" && !slices.Contains(rec.Passengers(), q.PassengerID) {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }

func sortByCycle(recs []Record) {
	slices.SortStableFunc(recs, func(a, b Record) int { return a.Cycle - b.Cycle })
}
