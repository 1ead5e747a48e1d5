package dispatch

import "github.com/kilianp07/raildispatch/core/model"

// EmergencyStack is a strict LIFO of emergency passengers. The most recently
// declared emergency is always served first.
type EmergencyStack struct {
	items []*model.Passenger
}

// NewEmergencyStack returns an empty stack.
func NewEmergencyStack() *EmergencyStack { return &EmergencyStack{} }

// Push adds p on top of the stack.
func (s *EmergencyStack) Push(p *model.Passenger) { s.items = append(s.items, p) }

// Pop removes and returns the top passenger.
func (s *EmergencyStack) Pop() (*model.Passenger, bool) {
	n := len(s.items)
	if n == 0 {
		return nil, false
	}
	p := s.items[n-1]
	s.items[n-1] = nil
	s.items = s.items[:n-1]
	return p, true
}

// Peek returns the top passenger without removing it.
func (s *EmergencyStack) Peek() (*model.Passenger, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	return s.items[len(s.items)-1], true
}

// Len returns the number of pending emergencies.
func (s *EmergencyStack) Len() int { return len(s.items) }

// Contains reports whether the passenger with id is pending.
func (s *EmergencyStack) Contains(id string) bool {
	for _, p := range s.items {
		if p.ID == id {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no emergency is pending.
func (s *EmergencyStack) IsEmpty() bool { return len(s.items) == 0 }
