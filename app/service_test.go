package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/raildispatch/api"
	"github.com/kilianp07/raildispatch/config"
	"github.com/kilianp07/raildispatch/core/journal"
	coremetrics "github.com/kilianp07/raildispatch/core/metrics"
	"github.com/kilianp07/raildispatch/core/model"
	"github.com/kilianp07/raildispatch/infra/mqtt"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Simulation.IntervalMS = 0
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config, client mqtt.Client) *Service {
	t.Helper()
	store, err := journal.NewJSONLStore(filepath.Join(t.TempDir(), "journal.jsonl"))
	require.NoError(t, err)
	opts := []Option{WithStore(store), WithMetricsSink(coremetrics.NopSink{})}
	if client != nil {
		opts = append(opts, WithMQTTClient(client))
	}
	svc, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestStepDrainsMQTTIntake(t *testing.T) {
	client := mqtt.NewMockClient()
	svc := newTestService(t, testConfig(), client)

	client.Intake <- model.Request{Origin: "A", Destination: "C"}
	client.Intake <- model.Request{Origin: "A", Destination: "A"}

	rep, err := svc.Step(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rep.Dispatch)
	assert.Equal(t, model.Station("C"), rep.EndStation)
	assert.True(t, rep.Dispatch.Alighted)
	assert.Equal(t, 2, rep.Dispatch.Cost)

	recs, err := svc.Journal(context.Background(), journal.Query{PassengerID: rep.Dispatch.Passenger.ID})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Cycle)
}

func TestSubmitRoutesEmergencies(t *testing.T) {
	svc := newTestService(t, testConfig(), nil)

	p, err := svc.Submit(model.Request{Origin: "B", Destination: "D", Emergency: true})
	require.NoError(t, err)
	assert.True(t, p.Emergency)
	_, err = svc.Submit(model.Request{Origin: "C", Destination: "A"})
	require.NoError(t, err)

	st := svc.Status()
	assert.Equal(t, 1, st.EmergenciesPending)
	assert.Equal(t, 1, st.Waiting["C"])

	rep, err := svc.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Emergencies, 1)
	assert.Equal(t, model.Station("A"), rep.EndStation)
	assert.Equal(t, 0, svc.Status().EmergenciesPending)
}

func TestSubmitAfterClose(t *testing.T) {
	client := mqtt.NewMockClient()
	svc := newTestService(t, testConfig(), client)
	require.NoError(t, svc.Close())
	assert.True(t, client.Closed)

	_, err := svc.Submit(model.Request{Origin: "A", Destination: "B"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, errors.Is(err, api.ErrUnavailable))

	_, err = svc.Step(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	require.NoError(t, svc.Close())
}

func TestJournalSeparatesRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	runs := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		store, err := journal.NewJSONLStore(path)
		require.NoError(t, err)
		svc, err := New(context.Background(), testConfig(), WithStore(store), WithMetricsSink(coremetrics.NopSink{}))
		require.NoError(t, err)
		_, err = svc.Submit(model.Request{Origin: "A", Destination: "B"})
		require.NoError(t, err)
		_, err = svc.Step(context.Background())
		require.NoError(t, err)
		runs = append(runs, svc.RunID())
		require.NoError(t, svc.Close())
	}
	require.NotEqual(t, runs[0], runs[1])

	store, err := journal.NewJSONLStore(path)
	require.NoError(t, err)
	all, err := store.Query(context.Background(), journal.Query{FromCycle: 1, ToCycle: 1})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, run := range runs {
		recs, err := store.Query(context.Background(), journal.Query{RunID: run})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, run, recs[0].RunID)
		assert.Equal(t, 1, recs[0].Cycle)
	}
}

func TestRunStopsAfterConfiguredCycles(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.Cycles = 3
	svc := newTestService(t, cfg, mqtt.NewMockClient())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Run(ctx))
	assert.Equal(t, 3, svc.Status().Cycles)

	recs, err := svc.Journal(context.Background(), journal.Query{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestRunHonoursCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.IntervalMS = 10
	svc := newTestService(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
	assert.Greater(t, svc.Status().Cycles, 0)
}

func TestGeneratorFeedsCycles(t *testing.T) {
	cfg := testConfig()
	cfg.Generator.Enabled = true
	cfg.Generator.Seed = 42
	cfg.Generator.ArrivalsPerCycle = 5
	svc := newTestService(t, cfg, nil)

	for i := 0; i < 5; i++ {
		_, err := svc.Step(context.Background())
		require.NoError(t, err)
	}
	st := svc.Status()
	assert.Equal(t, 5, st.Cycles)
	waiting := 0
	for _, n := range st.Waiting {
		waiting += n
	}
	assert.Positive(t, waiting+st.QueueDepth+st.EmergenciesPending+st.ElapsedTime)
}

func TestEventRecorderLookup(t *testing.T) {
	assert.Nil(t, eventRecorder(coremetrics.NopSink{}))
	rec := &countingRecorder{}
	multi := coremetrics.NewMultiSink(coremetrics.NopSink{}, rec)
	assert.Equal(t, rec, eventRecorder(multi))
}

type countingRecorder struct {
	coremetrics.NopSink
	n int
}

func (c *countingRecorder) RecordEvent(string) { c.n++ }
