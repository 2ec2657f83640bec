package metrics

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/alfosobral/UniParking/core/logger"
	coremetrics "github.com/alfosobral/UniParking/core/metrics"
	infralogger "github.com/alfosobral/UniParking/infra/logger"
)

// InfluxSink writes pipeline events to an InfluxDB instance using the
// official client. Writes are best-effort; failures are logged, never
// propagated into the pipeline.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      infralogger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a missing metrics backend never
// blocks the gateway.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.Sink {
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

var _ coremetrics.Sink = (*InfluxSink)(nil)

func (s *InfluxSink) write(measurement string, tags map[string]string) {
	p := influxdb2.NewPoint(measurement, tags, map[string]any{"count": 1}, time.Now().UTC())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		s.log.Errorf("influx write %s: %v", measurement, err)
	}
}

func (s *InfluxSink) RecordEvent(eventType string) {
	s.write("access_event", map[string]string{"type": eventType})
}

func (s *InfluxSink) RecordDuplicate() {
	s.write("access_duplicate", nil)
}

func (s *InfluxSink) RecordDecision(result string) {
	s.write("access_decision", map[string]string{"result": result})
}

func (s *InfluxSink) RecordCommand(action string) {
	s.write("access_command", map[string]string{"action": action})
}

func (s *InfluxSink) RecordAllocation(outcome string) {
	s.write("access_allocation", map[string]string{"outcome": outcome})
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
