package model

import (
	"errors"
	"testing"
)

func TestNewPassengerRejectsSameStation(t *testing.T) {
	if _, err := NewPassenger("A", "A", 0); !errors.Is(err, ErrSameStation) {
		t.Fatalf("expected ErrSameStation got %v", err)
	}
	if _, err := NewPassenger("", "B", 0); !errors.Is(err, ErrEmptyStation) {
		t.Fatalf("expected ErrEmptyStation got %v", err)
	}
}

func TestNewPassengerAssignsID(t *testing.T) {
	p1, err := NewPassenger("A", "C", 1)
	if err != nil {
		t.Fatalf("new passenger: %v", err)
	}
	p2, _ := NewPassenger("A", "C", 1)
	if p1.ID == "" || p1.ID == p2.ID {
		t.Fatalf("expected unique ids, got %q and %q", p1.ID, p2.ID)
	}
	if p1.Boarded || p1.Emergency {
		t.Fatalf("fresh passenger should be neither boarded nor emergency")
	}
}

func TestEmergencyPassenger(t *testing.T) {
	p, err := NewEmergencyPassenger("D", "A", 3)
	if err != nil {
		t.Fatalf("emergency: %v", err)
	}
	if !p.Emergency || p.Priority != 0 {
		t.Fatalf("unexpected emergency passenger %+v", p)
	}
}

func TestRequestPassenger(t *testing.T) {
	p, err := Request{ID: "p1", Origin: "B", Destination: "D", Emergency: true}.Passenger()
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if p.ID != "p1" || !p.Emergency {
		t.Fatalf("unexpected passenger %+v", p)
	}
	if _, err := (Request{Origin: "B", Destination: "B"}).Passenger(); !errors.Is(err, ErrSameStation) {
		t.Fatalf("expected ErrSameStation got %v", err)
	}
}
