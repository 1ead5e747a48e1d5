package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/raildispatch/core/metrics"
	"github.com/kilianp07/raildispatch/infra/logger"
)

// InfluxSink writes train activity to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// InfluxConfig holds the InfluxDB connection settings.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCycle writes a train_cycle point.
func (s *InfluxSink) RecordCycle(rec coremetrics.CycleRecord) error {
	p := write.NewPointWithMeasurement("train_cycle").
		AddTag("station", rec.Station).
		AddTag("dispatched", strconv.FormatBool(rec.Dispatched)).
		AddField("cycle", rec.Cycle).
		AddField("boarded", rec.Boarded).
		AddField("emergencies", rec.Emergencies).
		AddField("elapsed_time", rec.ElapsedTime).
		AddField("queue_depth", rec.QueueDepth).
		AddField("waiting", rec.Waiting).
		AddField("avg_travel_time", round3(rec.AverageTravelTime)).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordTrip writes a train_trip point.
func (s *InfluxSink) RecordTrip(rec coremetrics.TripRecord) error {
	p := write.NewPointWithMeasurement("train_trip").
		AddTag("passenger_id", rec.PassengerID).
		AddTag("from", rec.From).
		AddTag("to", rec.To).
		AddTag("alighted", strconv.FormatBool(rec.Alighted)).
		AddField("cost", rec.Cost).
		AddField("cycle", rec.Cycle).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordEmergency writes a train_emergency point.
func (s *InfluxSink) RecordEmergency(rec coremetrics.EmergencyRecord) error {
	p := write.NewPointWithMeasurement("train_emergency").
		AddTag("passenger_id", rec.PassengerID).
		AddTag("station", rec.Station).
		AddField("origin", rec.Origin).
		AddField("destination", rec.Destination).
		AddField("cycle", rec.Cycle).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordExpiry writes a passenger_expired point.
func (s *InfluxSink) RecordExpiry(rec coremetrics.ExpiryRecord) error {
	p := write.NewPointWithMeasurement("passenger_expired").
		AddTag("passenger_id", rec.PassengerID).
		AddTag("station", rec.Station).
		AddField("waited_cycles", rec.WaitedCycles).
		AddField("cycle", rec.Cycle).
		SetTime(rec.Time)
	return s.write(p)
}

// Close releases the client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
