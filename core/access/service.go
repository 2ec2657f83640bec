// Package access implements the decision pipeline: dedupe, persist, echo,
// authorize, command dispatch, spot allocation and notification fan-out for
// every inbound sensor event. Both ingress edges (MQTT consumer and HTTP
// fallback) funnel into Service.HandleSensorEvent.
package access

import (
	"context"
	"fmt"
	"time"

	"github.com/alfosobral/UniParking/core/alloc"
	"github.com/alfosobral/UniParking/core/logger"
	"github.com/alfosobral/UniParking/core/metrics"
	"github.com/alfosobral/UniParking/core/model"
	"github.com/alfosobral/UniParking/core/spotindex"
	"github.com/alfosobral/UniParking/internal/feed"
)

// SpotFeedStatus marks the terminal state of a plate-read on the spot feed.
// DENIED keeps downstream spot-feed consumers synchronized when no
// allocation was attempted; the other four mirror the allocation outcomes.
const (
	StatusDenied = "DENIED"
)

// SpotFeedPayload is the body of every frame on the shared spot feed.
type SpotFeedPayload struct {
	Status    string    `json:"status"`
	Spot      string    `json:"spot,omitempty"`
	Plate     string    `json:"plate"`
	DeviceID  string    `json:"device_id"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	// Cause carries the underlying error of an ERROR outcome for operator
	// diagnosis.
	Cause string `json:"cause,omitempty"`
}

// Service is the pipeline orchestrator. All collaborators are injected at
// startup; the service itself is stateless and safe for concurrent runs.
// The event repo's atomic dedupe and the store's insert constraints are the
// only cross-run synchronization points.
type Service struct {
	repo      EventRepo
	auth      AuthResolver
	actuator  Actuator
	allocator Allocator
	notifier  Notifier
	gates     GateLocator
	log       logger.Logger
	metrics   metrics.Sink
}

// New wires the pipeline. A nil gates locator places every gate at the
// origin; a nil sink discards metrics.
func New(repo EventRepo, auth AuthResolver, actuator Actuator, allocator Allocator, notifier Notifier, gates GateLocator, log logger.Logger, sink metrics.Sink) *Service {
	if gates == nil {
		gates = func(string) spotindex.Point { return spotindex.Point{} }
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Service{
		repo:      repo,
		auth:      auth,
		actuator:  actuator,
		allocator: allocator,
		notifier:  notifier,
		gates:     gates,
		log:       log,
		metrics:   sink,
	}
}

// HandleSensorEvent runs one event through the pipeline. A duplicate id is a
// silent no-op. The returned error reports command-dispatch or persistence
// failures; notification branches complete regardless.
func (s *Service) HandleSensorEvent(ctx context.Context, ev model.SensorEvent) error {
	ev.EnsureID()

	saved, err := s.repo.SaveIfUnseen(ctx, ev)
	if err != nil {
		return fmt.Errorf("persist event %s: %w", ev.EventID, err)
	}
	if !saved {
		// Already delivered once; observers were notified then.
		s.metrics.RecordDuplicate()
		s.log.Debugf("duplicate event %s dropped", ev.EventID)
		return nil
	}
	s.metrics.RecordEvent(string(ev.Type))

	// Echo every accepted event before any type-specific branching so
	// observers see the full traffic, not just plate reads.
	s.notifier.Publish(feed.DeviceTopic(ev.DeviceID), feed.Message{
		Type:     "sensor_event",
		DeviceID: ev.DeviceID,
		Payload:  ev,
	})

	if ev.Type != model.EventPlateRead {
		return nil
	}

	plate := model.NormalizePlate(ev.Plate())
	class, ok, err := s.auth.Resolve(ctx, plate)
	if err != nil {
		// Fail closed: a broken registry denies entry.
		s.log.Errorf("authorization lookup for plate %q failed: %v", plate, err)
		ok = false
	}
	if !ok {
		s.metrics.RecordDecision(string(model.DecisionDeny))
		s.publishDecision(ev, plate, model.DecisionDeny)
		s.publishSpotFeed(ev, plate, SpotFeedPayload{Status: StatusDenied})
		return nil
	}

	// The barrier opens as soon as authorization succeeds; allocation
	// bookkeeping is a separate failure domain and never reverses this.
	cmd := model.NewCommand(ev.DeviceID, model.ActionOpen, "ENTRY_AUTHORIZED")
	cmdErr := s.actuator.PublishCommand(ctx, cmd)
	if cmdErr != nil {
		s.log.Errorf("open command for %s failed: %v", ev.DeviceID, cmdErr)
		cmdErr = fmt.Errorf("dispatch open command: %w", cmdErr)
	} else {
		s.metrics.RecordCommand(string(cmd.Action))
		s.notifier.Publish(feed.DeviceTopic(ev.DeviceID), feed.Message{
			Type:     "command",
			DeviceID: ev.DeviceID,
			Payload:  cmd,
		})
	}
	s.metrics.RecordDecision(string(model.DecisionAllow))
	s.publishDecision(ev, plate, model.DecisionAllow)

	res := s.allocator.Allocate(ctx, alloc.Request{
		Plate: plate,
		Class: class,
		Gate:  s.gates(ev.DeviceID),
	})
	s.metrics.RecordAllocation(string(res.Outcome))
	out := SpotFeedPayload{Status: string(res.Outcome), Spot: res.SpotCode}
	if res.Outcome == alloc.OutcomeError && res.Err != nil {
		out.Cause = res.Err.Error()
	}
	s.publishSpotFeed(ev, plate, out)

	return cmdErr
}

func (s *Service) publishDecision(ev model.SensorEvent, plate string, result model.DecisionResult) {
	s.notifier.Publish(feed.DeviceTopic(ev.DeviceID), feed.Message{
		Type:     "decision",
		DeviceID: ev.DeviceID,
		Payload: model.DecisionOutcome{
			Result:   result,
			Plate:    plate,
			DeviceID: ev.DeviceID,
			EventID:  ev.EventID,
		},
	})
}

func (s *Service) publishSpotFeed(ev model.SensorEvent, plate string, p SpotFeedPayload) {
	p.Plate = plate
	p.DeviceID = ev.DeviceID
	p.EventID = ev.EventID
	p.Timestamp = time.Now().UTC()
	s.notifier.Publish(feed.SpotFeedTopic, feed.Message{
		Type:     "spot_assigned",
		DeviceID: ev.DeviceID,
		Payload:  p,
	})
}
