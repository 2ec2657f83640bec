package mqtt

import (
	"context"
	"encoding/json"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/alfosobral/UniParking/core/logger"
	"github.com/alfosobral/UniParking/core/model"
)

// Pipeline is the decision pipeline entry point both ingress edges share.
type Pipeline interface {
	HandleSensorEvent(ctx context.Context, ev model.SensorEvent) error
}

// Ingress subscribes to the sensor event topics and funnels every message
// into the pipeline.
type Ingress struct {
	client Client
	svc    Pipeline
	log    logger.Logger
}

// NewIngress creates the broker-side ingress edge.
func NewIngress(client Client, svc Pipeline, log logger.Logger) *Ingress {
	return &Ingress{client: client, svc: svc, log: log}
}

// Start subscribes to the sensor topics. Message handling stops when ctx is
// cancelled; in-flight runs are not interrupted.
func (i *Ingress) Start(ctx context.Context) error {
	if err := i.client.Subscribe(SensorEventsTopic, i.handler(ctx)); err != nil {
		return err
	}
	i.log.Infof("subscribed to %s", SensorEventsTopic)
	return nil
}

func (i *Ingress) handler(ctx context.Context) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		if ctx.Err() != nil {
			return
		}
		var ev model.SensorEvent
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			i.log.Errorf("invalid sensor event on %s: %v", msg.Topic(), err)
			return
		}
		ev.EnsureID()
		if err := i.svc.HandleSensorEvent(ctx, ev); err != nil {
			i.log.Errorf("pipeline run for event %s failed: %v", ev.EventID, err)
		}
	}
}
