package dispatch

import (
	"testing"

	"github.com/kilianp07/raildispatch/core/model"
)

func line(t *testing.T) *model.Topology {
	t.Helper()
	topo, err := model.NewTopology([]model.Station{"A", "B", "C", "D"})
	if err != nil {
		t.Fatalf("topology: %v", err)
	}
	return topo
}

func mustPassenger(t *testing.T, origin, dest model.Station) *model.Passenger {
	t.Helper()
	p, err := model.NewPassenger(origin, dest, 0)
	if err != nil {
		t.Fatalf("passenger: %v", err)
	}
	return p
}

func TestPriorityIsDistanceToDestination(t *testing.T) {
	topo := line(t)
	p := mustPassenger(t, "A", "D")
	for pos, want := range map[model.Station]int{"A": 3, "B": 2, "C": 1, "D": 0} {
		got, err := Priority(topo, pos, p)
		if err != nil {
			t.Fatalf("priority: %v", err)
		}
		if got != want {
			t.Errorf("priority at %s = %d, want %d", pos, got, want)
		}
	}
	if _, err := Priority(topo, "Z", p); err == nil {
		t.Fatalf("expected error for unknown position")
	}
}

func TestPriorityQueueOrdering(t *testing.T) {
	q := NewPriorityQueue(line(t))
	far := mustPassenger(t, "A", "D")
	far.Priority = 3
	near := mustPassenger(t, "A", "B")
	near.Priority = 1
	mid := mustPassenger(t, "A", "C")
	mid.Priority = 2
	q.Add(far)
	q.Add(near)
	q.Add(mid)

	if top, _ := q.Peek(); top != near {
		t.Fatalf("peek returned %v", top)
	}
	for _, want := range []*model.Passenger{near, mid, far} {
		got, ok := q.Get()
		if !ok || got != want {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if !q.IsEmpty() {
		t.Fatalf("queue should be empty")
	}
	if _, ok := q.Get(); ok {
		t.Fatalf("get on empty queue should fail")
	}
}

func TestPriorityQueueTieBreakIsInsertionOrder(t *testing.T) {
	q := NewPriorityQueue(line(t))
	var want []*model.Passenger
	for i := 0; i < 5; i++ {
		p := mustPassenger(t, "A", "C")
		p.Priority = 2
		q.Add(p)
		want = append(want, p)
	}
	for i, w := range want {
		got, _ := q.Get()
		if got != w {
			t.Fatalf("position %d: got %s want %s", i, got.ID, w.ID)
		}
	}
}

func TestRecalculateUpdatesAndIsIdempotent(t *testing.T) {
	q := NewPriorityQueue(line(t))
	toA := mustPassenger(t, "B", "A")
	toD := mustPassenger(t, "B", "D")
	toA.Priority, toD.Priority = 1, 2
	q.Add(toA)
	q.Add(toD)

	if err := q.Recalculate("D"); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if toA.Priority != 3 || toD.Priority != 0 {
		t.Fatalf("priorities not refreshed: A=%d D=%d", toA.Priority, toD.Priority)
	}
	first := q.Passengers()
	if err := q.Recalculate("D"); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	second := q.Passengers()
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("unexpected lengths %d %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] || first[i].Priority != second[i].Priority {
			t.Fatalf("recalculation not idempotent at %d", i)
		}
	}
	if first[0] != toD {
		t.Fatalf("closest destination should come first")
	}
}

func TestRecalculateEmptyQueue(t *testing.T) {
	q := NewPriorityQueue(line(t))
	if err := q.Recalculate("Z"); err != nil {
		t.Fatalf("empty recalculation should be a no-op: %v", err)
	}
}

func TestRecalculateKeepsKeysOnError(t *testing.T) {
	q := NewPriorityQueue(line(t))
	p := mustPassenger(t, "A", "C")
	p.Priority = 2
	q.Add(p)
	if err := q.Recalculate("Z"); err == nil {
		t.Fatalf("expected error")
	}
	if p.Priority != 2 {
		t.Fatalf("priority changed on failure: %d", p.Priority)
	}
}
