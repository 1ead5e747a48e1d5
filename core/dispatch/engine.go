package dispatch

import (
	"fmt"
	"time"

	"github.com/kilianp07/raildispatch/core/events"
	"github.com/kilianp07/raildispatch/core/logger"
	"github.com/kilianp07/raildispatch/core/metrics"
	"github.com/kilianp07/raildispatch/core/model"
	"github.com/kilianp07/raildispatch/core/monitoring"
	"github.com/kilianp07/raildispatch/internal/eventbus"
)

// TrainSystem runs the dispatch cycles of a single train. It is not safe for
// concurrent use: callers running it from several goroutines must serialise
// every call.
type TrainSystem struct {
	topo    *model.Topology
	unit    int
	maxHops int
	policy  HoldingPolicy

	position model.Station
	elapsed  int
	cycles   int
	samples  []float64

	queue       *PriorityQueue
	emergencies *EmergencyStack
	holding     *HoldingQueues

	log  logger.Logger
	sink metrics.MetricsSink
	bus  eventbus.EventBus
	now  func() time.Time

	pending CycleReport
	open    bool
}

// NewTrainSystem creates a train standing at the first of stations.
// timePerStationUnit is the elapsed time charged per station travelled.
func NewTrainSystem(stations []model.Station, timePerStationUnit int, opts ...Option) (*TrainSystem, error) {
	if timePerStationUnit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTimeUnit, timePerStationUnit)
	}
	topo, err := model.NewTopology(stations)
	if err != nil {
		return nil, err
	}
	ts := &TrainSystem{
		topo:        topo,
		unit:        timePerStationUnit,
		position:    topo.First(),
		queue:       NewPriorityQueue(topo),
		emergencies: NewEmergencyStack(),
		holding:     NewHoldingQueues(topo),
		log:         logger.NopLogger{},
		sink:        metrics.NopSink{},
		now:         time.Now,
	}
	for _, opt := range opts {
		if err := opt(ts); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// NewFromConfig builds a TrainSystem from cfg. Extra options are applied
// after the configured ones.
func NewFromConfig(cfg Config, opts ...Option) (*TrainSystem, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := []Option{
		WithMaxStationsPerMove(cfg.MaxStationsPerMove),
		WithHoldingPolicy(cfg.Holding),
	}
	if cfg.StartStation != "" {
		base = append(base, WithStartStation(model.Station(cfg.StartStation)))
	}
	return NewTrainSystem(cfg.StationList(), cfg.TimePerStationUnit, append(base, opts...)...)
}

// Topology returns the line the train runs on.
func (ts *TrainSystem) Topology() *model.Topology { return ts.topo }

// EnqueueAtStation places p in the holding queue of station. The station must
// be p's origin.
func (ts *TrainSystem) EnqueueAtStation(station model.Station, p *model.Passenger) error {
	if p.Emergency {
		return fmt.Errorf("%s: %w", p, ErrEmergencyChannel)
	}
	if err := ts.holding.Enqueue(station, p, ts.cycles); err != nil {
		return err
	}
	ts.log.Debugw("passenger waiting", map[string]any{
		"passenger_id": p.ID,
		"station":      string(station),
		"destination":  string(p.Destination),
	})
	return nil
}

// PushEmergency declares an emergency. It bypasses the holding queues and is
// accepted whatever the train position. Passengers already on board, waiting
// at a station or pending as an emergency are rejected.
func (ts *TrainSystem) PushEmergency(p *model.Passenger) error {
	if err := ts.topo.Validate(p.Origin, p.Destination); err != nil {
		return err
	}
	if p.Boarded {
		return fmt.Errorf("%s: %w", p, ErrAlreadyBoarded)
	}
	if ts.holding.Contains(p.ID) || ts.emergencies.Contains(p.ID) {
		return fmt.Errorf("%s: %w", p, ErrAlreadyQueued)
	}
	p.Emergency = true
	p.Priority = 0
	ts.emergencies.Push(p)
	ts.log.Infof("emergency declared for %s", p)
	return nil
}

// Submit validates a request and routes it to the emergency stack or to the
// holding queue of its origin.
func (ts *TrainSystem) Submit(req model.Request) (*model.Passenger, error) {
	p, err := req.Passenger()
	if err != nil {
		return nil, err
	}
	if p.Emergency {
		err = ts.PushEmergency(p)
	} else {
		err = ts.EnqueueAtStation(p.Origin, p)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RunCycle executes one full cycle: board, drain emergencies, dispatch one
// passenger, then recalculate and close the cycle.
func (ts *TrainSystem) RunCycle() CycleReport {
	ts.BoardWaitingPassengers()
	ts.DrainEmergencies()
	ts.DispatchOne()
	return ts.Recalculate()
}

func (ts *TrainSystem) begin() {
	if ts.open {
		return
	}
	ts.open = true
	ts.pending = CycleReport{Cycle: ts.cycles + 1, StartStation: ts.position}
}

// BoardWaitingPassengers moves every passenger waiting at the current
// station into the dispatch queue.
func (ts *TrainSystem) BoardWaitingPassengers() []*model.Passenger {
	ts.begin()
	var boarded []*model.Passenger
	for {
		p, ok := ts.holding.Dequeue(ts.position)
		if !ok {
			break
		}
		// Holding queues only accept stations of the topology.
		prio, _ := Priority(ts.topo, ts.position, p)
		p.Priority = prio
		p.Boarded = true
		ts.queue.Add(p)
		boarded = append(boarded, p)
		ts.pending.Boarded = append(ts.pending.Boarded, *p)
		ts.publish(events.PassengerBoarded{Passenger: *p, Station: ts.position, Cycle: ts.pending.Cycle})
	}
	if len(boarded) > 0 {
		ts.log.Infof("boarded %d passengers at %s", len(boarded), ts.position)
	}
	return boarded
}

// DrainEmergencies serves every pending emergency, most recent first. The
// train does not move for emergencies.
func (ts *TrainSystem) DrainEmergencies() []*model.Passenger {
	ts.begin()
	var served []*model.Passenger
	for {
		p, ok := ts.emergencies.Pop()
		if !ok {
			break
		}
		served = append(served, p)
		ts.pending.Emergencies = append(ts.pending.Emergencies, *p)
		ts.log.Infof("escorting emergency passenger %s at %s", p, ts.position)
		ts.publish(events.EmergencyEscorted{Passenger: *p, Station: ts.position, Cycle: ts.pending.Cycle})
		if r, ok := ts.sink.(metrics.EmergencyRecorder); ok {
			ts.report(r.RecordEmergency(metrics.EmergencyRecord{
				PassengerID: p.ID,
				Origin:      string(p.Origin),
				Destination: string(p.Destination),
				Station:     string(ts.position),
				Cycle:       ts.pending.Cycle,
				Time:        ts.now(),
			}), "emergency")
		}
	}
	return served
}

// DispatchOne serves the highest priority boarded passenger. It returns false
// when nobody is on board.
func (ts *TrainSystem) DispatchOne() (*DispatchOutcome, bool) {
	ts.begin()
	p, ok := ts.queue.Get()
	if !ok {
		return nil, false
	}
	out := &DispatchOutcome{Passenger: *p, From: ts.position, To: ts.position}
	if ts.position == p.Destination {
		out.Alighted = true
		ts.alight(p, 0)
	} else {
		// Boarded passengers were validated against the topology.
		next, _ := ts.topo.Toward(ts.position, p.Destination, ts.maxHops)
		cost, _ := ts.MoveToStation(next)
		ts.samples = append(ts.samples, float64(cost))
		out.To = ts.position
		out.Cost = cost
		if ts.position == p.Destination {
			out.Alighted = true
			ts.alight(p, cost)
		} else {
			p.Priority, _ = Priority(ts.topo, ts.position, p)
			ts.queue.Add(p)
			ts.log.Debugf("%s still on board at %s", p, ts.position)
		}
	}
	ts.pending.Dispatch = out
	if r, ok := ts.sink.(metrics.TripRecorder); ok {
		ts.report(r.RecordTrip(metrics.TripRecord{
			PassengerID: p.ID,
			Origin:      string(p.Origin),
			Destination: string(p.Destination),
			From:        string(out.From),
			To:          string(out.To),
			Cost:        out.Cost,
			Alighted:    out.Alighted,
			Cycle:       ts.pending.Cycle,
			Time:        ts.now(),
		}), "trip")
	}
	return out, true
}

func (ts *TrainSystem) alight(p *model.Passenger, cost int) {
	p.Boarded = false
	ts.log.Infof("passenger %s alighted at %s", p, ts.position)
	ts.publish(events.PassengerAlighted{Passenger: *p, Station: ts.position, TravelTime: cost, Cycle: ts.pending.Cycle})
}

// MoveToStation moves the train to dest and returns the elapsed time charged.
// Moving to the current station costs nothing.
func (ts *TrainSystem) MoveToStation(dest model.Station) (int, error) {
	dist, err := ts.topo.Distance(ts.position, dest)
	if err != nil {
		return 0, err
	}
	if dist == 0 {
		ts.log.Debugf("train already at %s", dest)
		return 0, nil
	}
	from := ts.position
	cost := dist * ts.unit
	ts.position = dest
	ts.elapsed += cost
	ts.log.Infof("moving from %s to %s (cost %d)", from, dest, cost)
	ts.publish(events.TrainMoved{From: from, To: dest, Cost: cost, Cycle: ts.cycles + 1})
	return cost, nil
}

// Recalculate refreshes the priorities of boarded passengers for the current
// position, applies the holding policy and closes the cycle.
func (ts *TrainSystem) Recalculate() CycleReport {
	ts.begin()
	if err := ts.queue.Recalculate(ts.position); err != nil {
		ts.log.Errorf("recalculate priorities: %v", err)
		monitoring.CaptureException(err, map[string]string{"module": "dispatch", "step": "recalculate"})
	}
	now := ts.now()
	expired := ts.holding.Expire(ts.cycles+1, ts.policy.MaxWaitCycles)
	for _, e := range expired {
		ts.log.Warnf("passenger %s dropped at %s after %d cycles", e.Passenger.ID, e.Station, e.WaitedCycles)
		ts.publish(events.PassengerExpired{Passenger: e.Passenger, Station: e.Station, WaitedCycles: e.WaitedCycles, Cycle: ts.pending.Cycle})
		if r, ok := ts.sink.(metrics.ExpiryRecorder); ok {
			ts.report(r.RecordExpiry(metrics.ExpiryRecord{
				PassengerID:  e.Passenger.ID,
				Station:      string(e.Station),
				WaitedCycles: e.WaitedCycles,
				Cycle:        ts.pending.Cycle,
				Time:         now,
			}), "expiry")
		}
	}

	ts.cycles++
	rep := ts.pending
	rep.Expired = expired
	rep.EndStation = ts.position
	rep.ElapsedTime = ts.elapsed
	rep.QueueDepth = ts.queue.Len()
	rep.Waiting = ts.holding.Total()
	rep.AverageTravelTime = ts.AverageTravelTime()
	rep.Time = now
	ts.pending = CycleReport{}
	ts.open = false

	ts.report(ts.sink.RecordCycle(metrics.CycleRecord{
		Cycle:             rep.Cycle,
		Station:           string(rep.EndStation),
		Boarded:           len(rep.Boarded),
		Emergencies:       len(rep.Emergencies),
		Dispatched:        rep.Dispatch != nil,
		ElapsedTime:       rep.ElapsedTime,
		QueueDepth:        rep.QueueDepth,
		Waiting:           rep.Waiting,
		AverageTravelTime: rep.AverageTravelTime,
		Time:              now,
	}), "cycle")
	ts.publish(events.CycleCompleted{
		Cycle:         rep.Cycle,
		Station:       rep.EndStation,
		ElapsedTime:   rep.ElapsedTime,
		QueueDepth:    rep.QueueDepth,
		Waiting:       rep.Waiting,
		AvgTravelTime: rep.AverageTravelTime,
	})
	return rep
}

// AverageTravelTime returns the mean of all travel-time samples, or 0 when
// no movement was recorded yet.
func (ts *TrainSystem) AverageTravelTime() float64 { return averageOf(ts.samples) }

// TravelStats summarises the travel-time samples.
func (ts *TrainSystem) TravelStats() TravelStats { return travelStats(ts.samples) }

// TotalElapsedTime returns the time accumulated by all movements.
func (ts *TrainSystem) TotalElapsedTime() int { return ts.elapsed }

// CycleCount returns the number of closed cycles.
func (ts *TrainSystem) CycleCount() int { return ts.cycles }

// CurrentStation returns the train position.
func (ts *TrainSystem) CurrentStation() model.Station { return ts.position }

// WaitingAt returns the number of passengers waiting at s.
func (ts *TrainSystem) WaitingAt(s model.Station) int { return ts.holding.Len(s) }

// QueueDepth returns the number of boarded passengers.
func (ts *TrainSystem) QueueDepth() int { return ts.queue.Len() }

// PendingEmergencies returns the number of declared but unserved emergencies.
func (ts *TrainSystem) PendingEmergencies() int { return ts.emergencies.Len() }

// Status returns a snapshot of the system.
func (ts *TrainSystem) Status() Status {
	onboard := ts.queue.Passengers()
	st := Status{
		Station:            ts.position,
		ElapsedTime:        ts.elapsed,
		Cycles:             ts.cycles,
		QueueDepth:         len(onboard),
		EmergenciesPending: ts.emergencies.Len(),
		Waiting:            ts.holding.Counts(),
		Onboard:            make([]model.Passenger, len(onboard)),
		Travel:             ts.TravelStats(),
	}
	for i, p := range onboard {
		st.Onboard[i] = *p
	}
	return st
}

func (ts *TrainSystem) publish(ev any) {
	if ts.bus != nil {
		ts.bus.Publish(ev)
	}
}

func (ts *TrainSystem) report(err error, kind string) {
	if err == nil {
		return
	}
	ts.log.Errorf("%s metrics error: %v", kind, err)
	monitoring.CaptureException(err, map[string]string{"module": "metrics", "record": kind})
}
