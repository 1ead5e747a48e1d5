package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/raildispatch/api"
	"github.com/kilianp07/raildispatch/config"
	"github.com/kilianp07/raildispatch/core/dispatch"
	"github.com/kilianp07/raildispatch/core/generator"
	"github.com/kilianp07/raildispatch/core/journal"
	coremetrics "github.com/kilianp07/raildispatch/core/metrics"
	"github.com/kilianp07/raildispatch/core/model"
	"github.com/kilianp07/raildispatch/core/monitoring"
	"github.com/kilianp07/raildispatch/infra/logger"
	"github.com/kilianp07/raildispatch/infra/metrics"
	"github.com/kilianp07/raildispatch/infra/mqtt"
	"github.com/kilianp07/raildispatch/internal/eventbus"
)

// ErrClosed is returned once the service has been closed.
var ErrClosed = fmt.Errorf("service closed: %w", api.ErrUnavailable)

// Service drives the train system: it collects requests from MQTT and the
// generator, runs cycles and journals their reports. It is safe for
// concurrent use.
type Service struct {
	cfg   *config.Config
	log   logger.Logger
	runID string

	mu     sync.Mutex
	system *dispatch.TrainSystem
	closed bool

	gen    *generator.Generator
	client mqtt.Client
	store  journal.Store
	sink   coremetrics.MetricsSink
	bus    *eventbus.Bus
}

// Option customises a Service.
type Option func(*Service)

// WithMQTTClient uses c instead of connecting to the configured broker.
func WithMQTTClient(c mqtt.Client) Option {
	return func(s *Service) { s.client = c }
}

// WithStore uses st instead of the configured journal backend.
func WithStore(st journal.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithMetricsSink uses sink instead of the configured sinks.
func WithMetricsSink(sink coremetrics.MetricsSink) Option {
	return func(s *Service) { s.sink = sink }
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg, log: logger.New("service"), runID: uuid.NewString(), bus: eventbus.New()}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.sink == nil {
		if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}
	if s.store == nil {
		if s.store, err = journal.New(ctx, cfg.Journal); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	s.system, err = dispatch.NewFromConfig(cfg.Train,
		dispatch.WithLogger(logger.New("dispatch")),
		dispatch.WithMetrics(s.sink),
		dispatch.WithEventBus(s.bus),
	)
	if err != nil {
		_ = s.store.Close()
		return nil, fmt.Errorf("train system: %w", err)
	}
	if cfg.Generator.Enabled {
		if s.gen, err = generator.New(cfg.Generator, s.system.Topology().Stations()); err != nil {
			_ = s.store.Close()
			return nil, fmt.Errorf("generator: %w", err)
		}
	}
	if s.client == nil && cfg.MQTT.Enabled {
		pc, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = s.store.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.client = pc
	}
	s.log.Infof("run %s started", s.runID)
	return s, nil
}

// RunID identifies this service run in the journal.
func (s *Service) RunID() string { return s.runID }

// Bus returns the event bus the train system publishes on.
func (s *Service) Bus() eventbus.EventBus { return s.bus }

// Store returns the journal store.
func (s *Service) Store() journal.Store { return s.store }

// Submit validates and routes a passenger request.
func (s *Service) Submit(req model.Request) (*model.Passenger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if req.RequestTime == 0 {
		req.RequestTime = s.system.CycleCount()
	}
	return s.system.Submit(req)
}

// Status returns a snapshot of the train system.
func (s *Service) Status() dispatch.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.system.Status()
}

// Journal queries the cycle journal.
func (s *Service) Journal(ctx context.Context, q journal.Query) ([]journal.Record, error) {
	return s.store.Query(ctx, q)
}

// Step collects pending requests, runs one cycle and journals its report.
func (s *Service) Step(ctx context.Context) (dispatch.CycleReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return dispatch.CycleReport{}, ErrClosed
	}
	for _, req := range s.collect() {
		if _, err := s.system.Submit(req); err != nil {
			s.log.Warnf("request %s -> %s rejected: %v", req.Origin, req.Destination, err)
		}
	}
	rep := s.system.RunCycle()
	rec := journal.FromReport(rep)
	rec.RunID = s.runID
	if err := s.store.Append(ctx, rec); err != nil {
		s.log.Errorf("journal append: %v", err)
		monitoring.CaptureException(err, map[string]string{"module": "journal", "cycle": fmt.Sprint(rep.Cycle)})
	}
	return rep, nil
}

// collect drains the MQTT intake without blocking and draws generated
// arrivals for the coming cycle.
func (s *Service) collect() []model.Request {
	var reqs []model.Request
	cycle := s.system.CycleCount()
	if s.client != nil {
		intake := s.client.Requests()
	drain:
		for {
			select {
			case req, ok := <-intake:
				if !ok {
					break drain
				}
				if req.RequestTime == 0 {
					req.RequestTime = cycle
				}
				reqs = append(reqs, req)
			default:
				break drain
			}
		}
	}
	if s.gen != nil {
		reqs = append(reqs, s.gen.Next(cycle)...)
	}
	return reqs
}

// Run starts the collectors and servers, then runs cycles until ctx is
// canceled or the configured number of cycles is reached.
func (s *Service) Run(ctx context.Context) error {
	defer monitoring.Recover()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if rec := eventRecorder(s.sink); rec != nil {
		done := metrics.StartEventCollector(ctx, s.bus, rec)
		wg.Add(1)
		go func() { defer wg.Done(); <-done }()
	}
	if s.client != nil {
		done := mqtt.RunAnnouncer(ctx, s.bus, s.client)
		wg.Add(1)
		go func() { defer wg.Done(); <-done }()
	}
	if addr := s.cfg.Metrics.PrometheusAddress(); addr != "" && !(s.cfg.API.Enabled && addr == s.cfg.API.Address) {
		s.serve(ctx, &wg, "prom server", func(ctx context.Context) error {
			return metrics.StartPromServer(ctx, addr)
		})
	}
	if s.cfg.API.Enabled {
		router := api.NewRouter(s.cfg.API, api.NewHandler(s, s.store), metrics.Handler(nil))
		s.serve(ctx, &wg, "api server", func(ctx context.Context) error {
			return api.Serve(ctx, s.cfg.API.Address, router)
		})
	}

	err := s.loop(ctx)
	cancel()
	wg.Wait()
	return err
}

func (s *Service) serve(ctx context.Context, wg *sync.WaitGroup, name string, fn func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := fn(ctx); err != nil {
			s.log.Errorf("%s: %v", name, err)
			monitoring.CaptureException(err, map[string]string{"module": "service", "server": name})
		}
	}()
}

func (s *Service) loop(ctx context.Context) error {
	limit := s.cfg.Simulation.Cycles
	interval := s.cfg.Simulation.Interval()
	s.log.Infof("running cycles every %s (limit %d)", interval, limit)
	for n := 0; limit == 0 || n < limit; n++ {
		if ctx.Err() != nil {
			return nil
		}
		rep, err := s.Step(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
		s.log.Debugw("cycle closed", map[string]any{
			"cycle":       rep.Cycle,
			"station":     string(rep.EndStation),
			"queue_depth": rep.QueueDepth,
			"waiting":     rep.Waiting,
		})
		if interval > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(interval):
			}
		}
	}
	return nil
}

// Close stops accepting requests and releases the MQTT client, the bus, the
// metrics sinks and the journal.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.client != nil {
		s.client.Disconnect()
	}
	s.bus.Close()
	closeSink(s.sink)
	if dropped := s.bus.Dropped(); dropped > 0 {
		s.log.Warnf("%d bus events dropped", dropped)
	}
	return s.store.Close()
}

func eventRecorder(sink coremetrics.MetricsSink) metrics.EventRecorder {
	if rec, ok := sink.(metrics.EventRecorder); ok {
		return rec
	}
	if multi, ok := sink.(*coremetrics.MultiSink); ok {
		for _, s := range multi.Sinks {
			if rec := eventRecorder(s); rec != nil {
				return rec
			}
		}
	}
	return nil
}

func closeSink(sink coremetrics.MetricsSink) {
	if c, ok := sink.(interface{ Close() }); ok {
		c.Close()
	}
	if multi, ok := sink.(*coremetrics.MultiSink); ok {
		for _, s := range multi.Sinks {
			closeSink(s)
		}
	}
}
