package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apidispatch "github.com/scrambledgregs/fleet-sub001/api/dispatch"
	"github.com/scrambledgregs/fleet-sub001/config"
	"github.com/scrambledgregs/fleet-sub001/core/dispatch"
	"github.com/scrambledgregs/fleet-sub001/core/dispatch/logging"
	coreeta "github.com/scrambledgregs/fleet-sub001/core/eta"
	"github.com/scrambledgregs/fleet-sub001/core/events"
	coremetrics "github.com/scrambledgregs/fleet-sub001/core/metrics"
	"github.com/scrambledgregs/fleet-sub001/infra/crm"
	"github.com/scrambledgregs/fleet-sub001/infra/eta"
	"github.com/scrambledgregs/fleet-sub001/infra/logger"
	"github.com/scrambledgregs/fleet-sub001/infra/metrics"
	"github.com/scrambledgregs/fleet-sub001/infra/notify"
	"github.com/scrambledgregs/fleet-sub001/internal/eventbus"
)

// Service orchestrates the dispatch manager and its collaborators.
type Service struct {
	Manager *dispatch.Manager

	apiAddr     string
	authToken   string
	defaultMode dispatch.Mode
	store       logging.LogStore
	notifier    *notify.MQTTNotifier
	bus         eventbus.EventBus
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	provider, err := etaProvider(cfg.ETA)
	if err != nil {
		return nil, fmt.Errorf("eta provider: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	var booking dispatch.BookingClient
	if cfg.CRM.BaseURL != "" {
		booking, err = crm.NewClient(cfg.CRM)
		if err != nil {
			return nil, fmt.Errorf("crm client: %w", err)
		}
	}

	scorer := dispatch.FitScorer{Weights: cfg.Dispatch.ScorerWeights()}
	ranker := dispatch.NewRanker(provider, scorer, cfg.Dispatch.MaxInflightETA, logger.New("ranker"))
	policy := dispatch.NewDecisionPolicy(booking, logger.New("policy"))
	manager, err := dispatch.NewManager(ranker, policy, logg)
	if err != nil {
		return nil, fmt.Errorf("dispatch manager: %w", err)
	}
	tuneSlots(manager.SlotGenerator(), cfg.Dispatch)

	bus := eventbus.New()
	manager.SetEventBus(bus)
	if sink != nil {
		manager.SetMetricsSink(sink)
	}

	store, err := logStore(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("log store: %w", err)
	}
	manager.SetLogStore(store)

	var notifier *notify.MQTTNotifier
	if cfg.Notify.Broker != "" {
		notifier, err = notify.NewMQTTNotifier(cfg.Notify)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		manager.SetNotifier(notifier)
	}

	return &Service{
		Manager:     manager,
		apiAddr:     cfg.API.Addr,
		authToken:   cfg.API.AuthToken,
		defaultMode: dispatch.Mode(cfg.Dispatch.Mode),
		store:       store,
		notifier:    notifier,
		bus:         bus,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

func etaProvider(cfg eta.Config) (coreeta.Provider, error) {
	if cfg.BaseURL != "" {
		return eta.NewHTTPProvider(cfg)
	}
	cfg.SetDefaults()
	return &eta.HaversineProvider{SpeedKmh: cfg.SpeedKmh}, nil
}

func logStore(cfg config.LoggingConfig) (logging.LogStore, error) {
	switch cfg.Backend {
	case "sqlite":
		return logging.NewSQLiteStore(cfg.Path)
	default:
		return logging.NewJSONLStore(cfg.Path)
	}
}

func tuneSlots(gen *dispatch.SlotGenerator, cfg dispatch.Config) {
	if cfg.ProbeCount > 0 {
		gen.ProbeCount = cfg.ProbeCount
	}
	if cfg.ProbeStepMinutes > 0 {
		gen.ProbeStep = time.Duration(cfg.ProbeStepMinutes) * time.Minute
	}
	if cfg.ServiceMinutes > 0 {
		gen.ServiceDuration = time.Duration(cfg.ServiceMinutes) * time.Minute
	}
	if cfg.SlotsKept > 0 {
		gen.Keep = cfg.SlotsKept
	}
}

// Run starts the HTTP servers and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	bookings, stopBookings := eventbus.SubscribeTo[events.BookingEvent](s.bus)
	defer stopBookings()
	go func() {
		for ev := range bookings {
			switch {
			case ev.Booked:
				s.log.Infof("booking committed: job %s -> %s (cost %.3f)", ev.JobID, ev.TechID, ev.Cost)
			case ev.Err != nil:
				s.log.Warnf("booking failed for job %s: %v", ev.JobID, ev.Err)
			}
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/api/dispatch", apidispatch.NewDispatchHandler(s.Manager, s.defaultMode))
	mux.Handle("/api/dispatch/logs", apidispatch.NewLogHandler(s.store, s.authToken))

	srv := &http.Server{Addr: s.apiAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	s.log.Infof("dispatch API listening on %s", s.apiAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.notifier != nil {
		s.notifier.Close()
	}
	return s.Manager.Close()
}
