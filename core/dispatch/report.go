package dispatch

import (
	"time"

	"github.com/kilianp07/raildispatch/core/model"
)

// DispatchOutcome describes the single normal dispatch of a cycle.
type DispatchOutcome struct {
	Passenger model.Passenger `json:"passenger"`
	From      model.Station   `json:"from"`
	To        model.Station   `json:"to"`
	Cost      int             `json:"cost"`
	Alighted  bool            `json:"alighted"`
}

// CycleReport summarises one closed cycle.
type CycleReport struct {
	Cycle             int                `json:"cycle"`
	StartStation      model.Station      `json:"start_station"`
	EndStation        model.Station      `json:"end_station"`
	Boarded           []model.Passenger  `json:"boarded,omitempty"`
	Emergencies       []model.Passenger  `json:"emergencies,omitempty"`
	Dispatch          *DispatchOutcome   `json:"dispatch,omitempty"`
	Expired           []ExpiredPassenger `json:"expired,omitempty"`
	ElapsedTime       int                `json:"elapsed_time"`
	QueueDepth        int                `json:"queue_depth"`
	Waiting           int                `json:"waiting"`
	AverageTravelTime float64            `json:"average_travel_time"`
	Time              time.Time          `json:"time"`
}

// Status is a point-in-time view of the train system.
type Status struct {
	Station            model.Station         `json:"station"`
	ElapsedTime        int                   `json:"elapsed_time"`
	Cycles             int                   `json:"cycles"`
	QueueDepth         int                   `json:"queue_depth"`
	EmergenciesPending int                   `json:"emergencies_pending"`
	Waiting            map[model.Station]int `json:"waiting"`
	Onboard            []model.Passenger     `json:"onboard"`
	Travel             TravelStats           `json:"travel"`
}
