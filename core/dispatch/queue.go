package dispatch

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/kilianp07/raildispatch/core/model"
)

// Priority returns the dispatch priority of p for a train at position: the
// distance to the passenger's destination. Lower values are served first.
func Priority(topo *model.Topology, position model.Station, p *model.Passenger) (int, error) {
	return topo.Distance(position, p.Destination)
}

type queueEntry struct {
	passenger *model.Passenger
	priority  int
	seq       uint64
}

type entryHeap []queueEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(queueEntry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = queueEntry{}
	*h = old[:n-1]
	return e
}

// PriorityQueue holds boarded passengers ordered by (priority, insertion
// sequence). The sequence breaks ties so the first enqueued passenger wins.
type PriorityQueue struct {
	topo  *model.Topology
	items entryHeap
	seq   uint64
}

// NewPriorityQueue returns an empty queue computing priorities on topo.
func NewPriorityQueue(topo *model.Topology) *PriorityQueue {
	return &PriorityQueue{topo: topo}
}

// Add inserts p keyed by its current Priority. Callers must not add the same
// passenger twice.
func (q *PriorityQueue) Add(p *model.Passenger) {
	heap.Push(&q.items, queueEntry{passenger: p, priority: p.Priority, seq: q.seq})
	q.seq++
}

// Get removes and returns the passenger with the lowest key.
func (q *PriorityQueue) Get() (*model.Passenger, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	e := heap.Pop(&q.items).(queueEntry)
	return e.passenger, true
}

// Peek returns the passenger Get would return without removing it.
func (q *PriorityQueue) Peek() (*model.Passenger, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0].passenger, true
}

// Len returns the number of queued passengers.
func (q *PriorityQueue) Len() int { return len(q.items) }

// IsEmpty reports whether the queue holds no passenger.
func (q *PriorityQueue) IsEmpty() bool { return len(q.items) == 0 }

// Recalculate recomputes every priority for a train at position and rebuilds
// the heap. All new priorities are computed before any entry is touched, so
// on error the queue keeps its previous keys.
func (q *PriorityQueue) Recalculate(position model.Station) error {
	if len(q.items) == 0 {
		return nil
	}
	fresh := make([]int, len(q.items))
	for i, e := range q.items {
		prio, err := Priority(q.topo, position, e.passenger)
		if err != nil {
			return fmt.Errorf("recalculate %s: %w", e.passenger.ID, err)
		}
		fresh[i] = prio
	}
	for i := range q.items {
		q.items[i].priority = fresh[i]
		q.items[i].passenger.Priority = fresh[i]
	}
	heap.Init(&q.items)
	return nil
}

// Passengers returns the queued passengers in dispatch order.
func (q *PriorityQueue) Passengers() []*model.Passenger {
	entries := make(entryHeap, len(q.items))
	copy(entries, q.items)
	sort.Slice(entries, entries.Less)
	out := make([]*model.Passenger, len(entries))
	for i, e := range entries {
		out[i] = e.passenger
	}
	return out
}
