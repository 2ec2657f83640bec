package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of sensor event a device reported.
type EventType string

const (
	EventPlateRead    EventType = "PLATE_READ"
	EventLoopTrigger  EventType = "LOOP_TRIGGER"
	EventBarrierState EventType = "BARRIER_STATE"
	EventHealth       EventType = "HEALTH"
)

// SensorEvent is an immutable occurrence reported by a field device. Identity
// is EventID: two events carrying the same id are the same logical occurrence
// and the second delivery is dropped by the pipeline.
type SensorEvent struct {
	EventID   string         `json:"event_id"`
	DeviceID  string         `json:"device_id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Payload   map[string]any `json:"payload"`
}

// EnsureID assigns a generated id when the ingress edge delivered the event
// without one.
func (e *SensorEvent) EnsureID() {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
}

// Plate extracts the license plate from the payload of a PLATE_READ event.
// Returns the empty string when the payload has no usable plate.
func (e SensorEvent) Plate() string {
	v, ok := e.Payload["plate"]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// CommandAction is the physical operation requested from an actuator.
type CommandAction string

const (
	ActionOpen  CommandAction = "OPEN"
	ActionClose CommandAction = "CLOSE"
)

// Command is an outbound actuator order. Commands are never persisted and are
// sent at most once per triggering outcome.
type Command struct {
	RequestID string        `json:"request_id"`
	DeviceID  string        `json:"device_id"`
	Action    CommandAction `json:"action"`
	Reason    string        `json:"reason,omitempty"`
	IssuedAt  time.Time     `json:"issued_at"`
}

// NewCommand builds a command with a fresh request id and timestamp.
func NewCommand(deviceID string, action CommandAction, reason string) Command {
	return Command{
		RequestID: uuid.NewString(),
		DeviceID:  deviceID,
		Action:    action,
		Reason:    reason,
		IssuedAt:  time.Now().UTC(),
	}
}

// DecisionResult is the outcome of an authorization check.
type DecisionResult string

const (
	DecisionAllow DecisionResult = "ALLOW"
	DecisionDeny  DecisionResult = "DENY"
)

// DecisionOutcome is emitted to observers and never stored.
type DecisionOutcome struct {
	Result   DecisionResult `json:"result"`
	Plate    string         `json:"plate"`
	DeviceID string         `json:"device_id"`
	EventID  string         `json:"event_id"`
}

// NormalizePlate strips whitespace and upper-cases a plate so that registry
// lookups are insensitive to how the camera formatted the read.
func NormalizePlate(p string) string {
	return strings.ToUpper(strings.Join(strings.Fields(p), ""))
}
