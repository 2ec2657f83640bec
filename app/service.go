// Package app wires the gateway: store, broker client, pipeline, feed hub
// and HTTP surface, built from the configuration and run until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpapi "github.com/alfosobral/UniParking/api/http"
	"github.com/alfosobral/UniParking/config"
	"github.com/alfosobral/UniParking/core/access"
	"github.com/alfosobral/UniParking/core/alloc"
	coremetrics "github.com/alfosobral/UniParking/core/metrics"
	"github.com/alfosobral/UniParking/infra/logger"
	"github.com/alfosobral/UniParking/infra/metrics"
	"github.com/alfosobral/UniParking/infra/mqtt"
	"github.com/alfosobral/UniParking/infra/store"
	"github.com/alfosobral/UniParking/internal/feed"
)

// Service owns the gateway's long-lived resources.
type Service struct {
	client  *mqtt.PahoClient
	ingress *mqtt.Ingress
	httpSrv *http.Server
	log     logger.Logger
}

// New builds the service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	st, err := store.Open(cfg.Database, logger.New("store"))
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	client, err := mqtt.NewPahoClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	hub := feed.NewHub(logger.New("feed"))
	actuator := mqtt.NewActuator(client, logger.New("actuator"))
	allocator := alloc.New(st, logger.New("allocator"))
	pipeline := access.New(st, st, actuator, allocator, hub, cfg.GateLocator(), logger.New("pipeline"), sink)

	return &Service{
		client:  client,
		ingress: mqtt.NewIngress(client, pipeline, logger.New("ingress")),
		httpSrv: &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpapi.NewRouter(pipeline, actuator, hub, logger.New("http")),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logg,
	}, nil
}

// Run starts both ingress edges and blocks until the context is cancelled.
// Shutdown stops accepting new work; in-flight pipeline runs complete on
// their own.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ingress.Start(ctx); err != nil {
		return fmt.Errorf("ingress: %w", err)
	}
	go func() {
		s.log.Infof("http listening on %s", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutCtx); err != nil {
		s.log.Errorf("http shutdown: %v", err)
	}
	return nil
}

// Close releases the broker session.
func (s *Service) Close() error {
	s.client.Close()
	return nil
}
