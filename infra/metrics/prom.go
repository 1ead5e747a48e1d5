package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/raildispatch/core/metrics"
)

// PromSink records train activity in Prometheus metrics.
type PromSink struct {
	cycles      prometheus.Counter
	trips       *prometheus.CounterVec
	travelCost  prometheus.Histogram
	emergencies *prometheus.CounterVec
	expired     *prometheus.CounterVec
	events      *prometheus.CounterVec
	queueDepth  prometheus.Gauge
	waiting     prometheus.Gauge
	elapsed     prometheus.Gauge
	avgTravel   prometheus.Gauge
}

// NewPromSink registers train metrics on the default Prometheus registerer.
// The Prometheus server should be started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.cycles, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "train_cycles_total",
		Help: "Number of closed dispatch cycles",
	})); err != nil {
		return nil, err
	}
	if s.trips, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "train_trips_total",
		Help: "Normal dispatches by outcome",
	}, []string{"alighted"})); err != nil {
		return nil, err
	}
	if s.travelCost, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "train_travel_cost",
		Help:    "Elapsed time charged per movement",
		Buckets: prometheus.LinearBuckets(1, 1, 10),
	})); err != nil {
		return nil, err
	}
	if s.emergencies, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "train_emergencies_total",
		Help: "Emergency passengers escorted by station",
	}, []string{"station"})); err != nil {
		return nil, err
	}
	if s.expired, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "passengers_expired_total",
		Help: "Waiting passengers dropped by the holding policy",
	}, []string{"station"})); err != nil {
		return nil, err
	}
	if s.events, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "train_events_total",
		Help: "Events published on the train event bus",
	}, []string{"type"})); err != nil {
		return nil, err
	}
	if s.queueDepth, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "train_queue_depth",
		Help: "Boarded passengers awaiting dispatch",
	})); err != nil {
		return nil, err
	}
	if s.waiting, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "station_waiting_passengers",
		Help: "Passengers waiting in holding queues",
	})); err != nil {
		return nil, err
	}
	if s.elapsed, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "train_elapsed_time",
		Help: "Total elapsed time of all movements",
	})); err != nil {
		return nil, err
	}
	if s.avgTravel, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "train_average_travel_time",
		Help: "Mean elapsed time per movement",
	})); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordCycle updates the counters and gauges of a closed cycle.
func (s *PromSink) RecordCycle(rec coremetrics.CycleRecord) error {
	s.cycles.Inc()
	s.queueDepth.Set(float64(rec.QueueDepth))
	s.waiting.Set(float64(rec.Waiting))
	s.elapsed.Set(float64(rec.ElapsedTime))
	s.avgTravel.Set(rec.AverageTravelTime)
	return nil
}

// RecordTrip counts the dispatch and observes its cost when the train moved.
func (s *PromSink) RecordTrip(rec coremetrics.TripRecord) error {
	s.trips.WithLabelValues(strconv.FormatBool(rec.Alighted)).Inc()
	if rec.Cost > 0 {
		s.travelCost.Observe(float64(rec.Cost))
	}
	return nil
}

// RecordEmergency counts an escorted emergency.
func (s *PromSink) RecordEmergency(rec coremetrics.EmergencyRecord) error {
	s.emergencies.WithLabelValues(rec.Station).Inc()
	return nil
}

// RecordExpiry counts a dropped passenger.
func (s *PromSink) RecordExpiry(rec coremetrics.ExpiryRecord) error {
	s.expired.WithLabelValues(rec.Station).Inc()
	return nil
}

// RecordEvent counts a bus event by type name.
func (s *PromSink) RecordEvent(name string) {
	s.events.WithLabelValues(name).Inc()
}
