// Package metrics implements the pipeline metric sinks: Prometheus counters,
// an optional InfluxDB writer and a fan-out multi sink.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/alfosobral/UniParking/core/metrics"
)

// PromSink records pipeline events as Prometheus counters.
type PromSink struct {
	events      *prometheus.CounterVec
	duplicates  prometheus.Counter
	decisions   *prometheus.CounterVec
	commands    *prometheus.CounterVec
	allocations *prometheus.CounterVec
}

// NewPromSink registers the gateway metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_events_total",
			Help: "Accepted sensor events by type",
		}, []string{"type"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "access_duplicate_events_total",
			Help: "Re-delivered events dropped by dedupe",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_decisions_total",
			Help: "Authorization decisions by result",
		}, []string{"result"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_commands_total",
			Help: "Actuator commands dispatched by action",
		}, []string{"action"}),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_allocations_total",
			Help: "Spot allocation attempts by terminal outcome",
		}, []string{"outcome"}),
	}
	var err error
	if s.events, err = registerVec(reg, s.events); err != nil {
		return nil, err
	}
	if err := reg.Register(s.duplicates); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.duplicates = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if s.decisions, err = registerVec(reg, s.decisions); err != nil {
		return nil, err
	}
	if s.commands, err = registerVec(reg, s.commands); err != nil {
		return nil, err
	}
	if s.allocations, err = registerVec(reg, s.allocations); err != nil {
		return nil, err
	}
	return s, nil
}

func registerVec(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec), nil
		}
		return nil, err
	}
	return vec, nil
}

var _ coremetrics.Sink = (*PromSink)(nil)

func (s *PromSink) RecordEvent(eventType string) { s.events.WithLabelValues(eventType).Inc() }
func (s *PromSink) RecordDuplicate()             { s.duplicates.Inc() }
func (s *PromSink) RecordDecision(result string) { s.decisions.WithLabelValues(result).Inc() }
func (s *PromSink) RecordCommand(action string)  { s.commands.WithLabelValues(action).Inc() }
func (s *PromSink) RecordAllocation(outcome string) {
	s.allocations.WithLabelValues(outcome).Inc()
}
