package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alfosobral/UniParking/core/logger"
	"github.com/alfosobral/UniParking/core/model"
)

// ErrNotConnected is returned when a command is dispatched while the broker
// session is down. Commands are never silently dropped.
var ErrNotConnected = errors.New("mqtt client not connected")

// Actuator publishes barrier commands to per-device topics.
type Actuator struct {
	client Client
	log    logger.Logger
}

// NewActuator creates an Actuator on top of the shared client.
func NewActuator(client Client, log logger.Logger) *Actuator {
	return &Actuator{client: client, log: log}
}

// PublishCommand serializes the command and sends it once to the device's
// command topic.
func (a *Actuator) PublishCommand(_ context.Context, cmd model.Command) error {
	if !a.client.IsConnected() {
		return fmt.Errorf("command %s for %s: %w", cmd.Action, cmd.DeviceID, ErrNotConnected)
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	topic := CommandTopic(cmd.DeviceID)
	if err := a.client.Publish(topic, payload); err != nil {
		return err
	}
	a.log.Debugw("command published", map[string]any{
		"topic":      topic,
		"action":     cmd.Action,
		"request_id": cmd.RequestID,
	})
	return nil
}
