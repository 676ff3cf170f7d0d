package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/hems/api"
	"github.com/kilianp07/hems/app/plugins"
	"github.com/kilianp07/hems/config"
	"github.com/kilianp07/hems/core/dispatch"
	dispatchlog "github.com/kilianp07/hems/core/dispatch/logging"
	coremetrics "github.com/kilianp07/hems/core/metrics"
	coremon "github.com/kilianp07/hems/core/monitoring"
	"github.com/kilianp07/hems/core/schedule"
	"github.com/kilianp07/hems/infra/feed"
	"github.com/kilianp07/hems/infra/logger"
	"github.com/kilianp07/hems/infra/metrics"
	"github.com/kilianp07/hems/infra/monitoring"
	"github.com/kilianp07/hems/internal/eventbus"
	"github.com/kilianp07/hems/jobs/optimization"
)

// Service wires the scheduler to its port, feeds and HTTP surface.
type Service struct {
	Manager *schedule.Manager
	Port    dispatch.Port

	cfg       *config.Config
	bus       *eventbus.Bus
	sink      coremetrics.MetricsSink
	store     dispatchlog.LogStore
	feed      *feed.Consumer
	runner    *optimization.Runner
	closePort func()
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		logg.Warnf("sentry disabled: %v", err)
	} else {
		coremon.Init(mon)
	}

	port, closePort, err := plugins.NewPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("dispatch port: %w", err)
	}
	svc := &Service{Port: port, cfg: cfg, closePort: closePort, log: logg}
	checkHub(ctx, port, logg)
	ok := false
	defer func() {
		if !ok {
			_ = svc.Close()
		}
	}()

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	svc.sink = sink

	store, err := plugins.NewLogStore(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("log store: %w", err)
	}

	svc.store = store
	svc.bus = eventbus.New()
	manager, err := schedule.NewManager(port, nil, logger.New("scheduler"), cfg.Scheduler)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("schedule manager: %w", err)
	}
	manager.SetSink(sink)
	manager.SetEventBus(svc.bus)
	manager.SetLogStore(store)
	svc.Manager = manager

	if cfg.FeedEnabled() {
		c, err := feed.NewConsumer(cfg.Feed, manager, logger.New("feed"))
		if err != nil {
			return nil, fmt.Errorf("kafka feed: %w", err)
		}
		svc.feed = c
	}
	if cfg.OptimizationEnabled() {
		r, err := optimization.NewRunner(ctx, cfg.Optimization, manager, logger.New("optimization"))
		if err != nil {
			return nil, fmt.Errorf("optimization runner: %w", err)
		}
		svc.runner = r
	}
	ok = true
	return svc, nil
}

// pinger is implemented by ports that can check the hub before the first
// dispatch.
type pinger interface {
	Ping(ctx context.Context) error
}

const hubCheckTimeout = 5 * time.Second

// checkHub logs whether the hub behind port is reachable. A failure is not
// fatal: batches may carry their own token and the hub may come up later.
func checkHub(ctx context.Context, port dispatch.Port, log logger.Logger) bool {
	p, ok := port.(pinger)
	if !ok {
		return true
	}
	cctx, cancel := context.WithTimeout(ctx, hubCheckTimeout)
	defer cancel()
	if err := p.Ping(cctx); err != nil {
		log.Warnf("hub check failed: %v", err)
		return false
	}
	log.Infof("hub reachable")
	return true
}

// Runner returns the optimization runner, or nil when none is configured.
func (s *Service) Runner() *optimization.Runner { return s.runner }

// Run starts the enabled components and blocks until ctx is cancelled or
// one of them fails.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		g.Go(func() error { return metrics.StartPromServer(ctx, addr) })
	}
	if s.cfg.API.Addr != "" {
		h := api.NewRouter(api.Deps{
			Scheduler: s.Manager,
			Bus:       s.bus,
			Logs:      s.store,
			JWTSecret: s.cfg.API.JWTSecret,
			Interval:  s.cfg.Scheduler.Interval(),
			Logger:    logger.New("api"),
		})
		g.Go(func() error { return api.Serve(ctx, s.cfg.API.Addr, h, s.log) })
	}
	if s.feed != nil {
		g.Go(func() error {
			err := s.feed.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	s.log.Infof("service started: port=%s api=%q feed=%t", s.cfg.Port, s.cfg.API.Addr, s.feed != nil)
	return g.Wait()
}

// RunOptimization runs one optimization workflow.
func (s *Service) RunOptimization(ctx context.Context) (optimization.Report, error) {
	if s.runner == nil {
		return optimization.Report{}, errors.New("optimization is not configured")
	}
	return s.runner.Run(ctx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.feed != nil {
		errs = append(errs, s.feed.Close())
	}
	if s.Manager != nil {
		errs = append(errs, s.Manager.Close())
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if s.bus != nil {
		s.bus.Close()
	}
	if s.closePort != nil {
		s.closePort()
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
