package dispatch

import (
	"fmt"

	"github.com/kilianp07/raildispatch/core/model"
)

type waiting struct {
	passenger *model.Passenger
	since     int
}

// ExpiredPassenger is a waiting passenger removed by the holding policy.
type ExpiredPassenger struct {
	Passenger    model.Passenger `json:"passenger"`
	Station      model.Station   `json:"station"`
	WaitedCycles int             `json:"waited_cycles"`
}

// HoldingQueues keeps one FIFO of not yet boarded passengers per station.
type HoldingQueues struct {
	topo   *model.Topology
	queues map[model.Station][]waiting
	queued map[string]struct{}
}

// NewHoldingQueues returns empty queues for every station of topo.
func NewHoldingQueues(topo *model.Topology) *HoldingQueues {
	return &HoldingQueues{
		topo:   topo,
		queues: make(map[model.Station][]waiting, topo.Len()),
		queued: make(map[string]struct{}),
	}
}

// Enqueue appends p to the queue of station. cycle stamps the arrival for the
// holding policy. Unknown stations and passengers whose origin is not
// station are rejected, as is a passenger already waiting somewhere.
func (h *HoldingQueues) Enqueue(station model.Station, p *model.Passenger, cycle int) error {
	if err := h.topo.Validate(station, p.Origin, p.Destination); err != nil {
		return err
	}
	if p.Origin != station {
		return fmt.Errorf("%s queued at %s: %w", p, station, ErrOriginMismatch)
	}
	if p.Boarded {
		return fmt.Errorf("%s: %w", p, ErrAlreadyBoarded)
	}
	if h.Contains(p.ID) {
		return fmt.Errorf("%s: %w", p, ErrAlreadyQueued)
	}
	h.queues[station] = append(h.queues[station], waiting{passenger: p, since: cycle})
	h.queued[p.ID] = struct{}{}
	return nil
}

// Contains reports whether the passenger with id is waiting at any station.
func (h *HoldingQueues) Contains(id string) bool {
	_, ok := h.queued[id]
	return ok
}

// Dequeue removes the oldest passenger waiting at station.
func (h *HoldingQueues) Dequeue(station model.Station) (*model.Passenger, bool) {
	q := h.queues[station]
	if len(q) == 0 {
		return nil, false
	}
	p := q[0].passenger
	delete(h.queued, p.ID)
	q[0] = waiting{}
	if len(q) == 1 {
		delete(h.queues, station)
	} else {
		h.queues[station] = q[1:]
	}
	return p, true
}

// Len returns the number of passengers waiting at station.
func (h *HoldingQueues) Len(station model.Station) int { return len(h.queues[station]) }

// Total returns the number of waiting passengers across all stations.
func (h *HoldingQueues) Total() int {
	n := 0
	for _, q := range h.queues {
		n += len(q)
	}
	return n
}

// Counts returns the number of waiting passengers for every station of the
// line, including empty ones.
func (h *HoldingQueues) Counts() map[model.Station]int {
	out := make(map[model.Station]int, h.topo.Len())
	for _, s := range h.topo.Stations() {
		out[s] = len(h.queues[s])
	}
	return out
}

// Expire drops passengers that waited at least maxWait cycles as of now.
// A non-positive maxWait keeps everyone. Stations are scanned in line order.
func (h *HoldingQueues) Expire(now, maxWait int) []ExpiredPassenger {
	if maxWait <= 0 {
		return nil
	}
	var out []ExpiredPassenger
	for _, s := range h.topo.Stations() {
		q := h.queues[s]
		if len(q) == 0 {
			continue
		}
		kept := q[:0]
		for _, w := range q {
			if waited := now - w.since; waited >= maxWait {
				out = append(out, ExpiredPassenger{Passenger: *w.passenger, Station: s, WaitedCycles: waited})
				delete(h.queued, w.passenger.ID)
				continue
			}
			kept = append(kept, w)
		}
		if len(kept) == 0 {
			delete(h.queues, s)
		} else {
			h.queues[s] = kept
		}
	}
	return out
}
