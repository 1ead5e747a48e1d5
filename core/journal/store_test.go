package journal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kilianp07/raildispatch/core/dispatch"
	"github.com/kilianp07/raildispatch/core/model"
)

func sampleReport() dispatch.CycleReport {
	p := model.Passenger{ID: "p1", Origin: "A", Destination: "C"}
	return dispatch.CycleReport{
		Cycle:        3,
		StartStation: "A",
		EndStation:   "C",
		Boarded:      []model.Passenger{p},
		Emergencies:  []model.Passenger{{ID: "e1", Origin: "B", Destination: "D", Emergency: true}},
		Dispatch:     &dispatch.DispatchOutcome{Passenger: p, From: "A", To: "C", Cost: 2, Alighted: true},
		Expired:      []dispatch.ExpiredPassenger{{Passenger: model.Passenger{ID: "x1"}, Station: "D", WaitedCycles: 4}},
		ElapsedTime:  8,
		QueueDepth:   1,
		Waiting:      2,
		Time:         time.Unix(100, 0).UTC(),
	}
}

func TestFromReport(t *testing.T) {
	rec := FromReport(sampleReport())
	if rec.Cycle != 3 || rec.StartStation != "A" || rec.EndStation != "C" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Trip == nil || rec.Trip.PassengerID != "p1" || rec.Trip.Cost != 2 || !rec.Trip.Alighted {
		t.Fatalf("unexpected trip %+v", rec.Trip)
	}
	got := rec.Passengers()
	want := []string{"e1", "p1", "x1"}
	if len(got) != len(want) {
		t.Fatalf("passengers = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("passengers = %v", got)
		}
	}
}

func TestRecord_JSON(t *testing.T) {
	data, err := json.Marshal(FromReport(sampleReport()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"timestamp", "cycle", "start_station", "end_station", "boarded", "trip", "elapsed_time"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %s", k)
		}
	}
}

func TestQueryMatch(t *testing.T) {
	rec := FromReport(sampleReport())
	rec.RunID = "run-1"
	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"empty", Query{}, true},
		{"in range", Query{FromCycle: 2, ToCycle: 3}, true},
		{"before range", Query{FromCycle: 4}, false},
		{"after range", Query{ToCycle: 2}, false},
		{"start station", Query{Station: "A"}, true},
		{"end station", Query{Station: "C"}, true},
		{"other station", Query{Station: "B"}, false},
		{"passenger", Query{PassengerID: "e1"}, true},
		{"unknown passenger", Query{PassengerID: "nobody"}, false},
		{"same run", Query{RunID: "run-1", FromCycle: 3}, true},
		{"other run", Query{RunID: "run-2"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Match(rec); got != tt.want {
				t.Fatalf("match = %v want %v", got, tt.want)
			}
		})
	}
}
