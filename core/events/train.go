package events

import "github.com/kilianp07/raildispatch/core/model"

// TrainMoved is published after every movement that changed the position.
type TrainMoved struct {
	From  model.Station
	To    model.Station
	Cost  int
	Cycle int
}

// CycleCompleted is published once a cycle closed.
type CycleCompleted struct {
	Cycle         int
	Station       model.Station
	ElapsedTime   int
	QueueDepth    int
	Waiting       int
	AvgTravelTime float64
}
