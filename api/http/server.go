// Package httpapi exposes the gateway's HTTP surface: the sensor-event
// fallback ingress, operator barrier overrides, the websocket feed and the
// Prometheus endpoint. Handlers are thin shims over the pipeline and the
// actuator; no decision logic lives here.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alfosobral/UniParking/core/access"
	"github.com/alfosobral/UniParking/core/logger"
	"github.com/alfosobral/UniParking/core/model"
	"github.com/alfosobral/UniParking/internal/feed"
)

// Pipeline is the shared decision pipeline entry point.
type Pipeline interface {
	HandleSensorEvent(ctx context.Context, ev model.SensorEvent) error
}

// Server holds the handler dependencies.
type Server struct {
	pipeline Pipeline
	actuator access.Actuator
	hub      *feed.Hub
	log      logger.Logger
	upgrader websocket.Upgrader
}

// NewRouter builds the chi router for the gateway.
func NewRouter(pipeline Pipeline, actuator access.Actuator, hub *feed.Hub, log logger.Logger) chi.Router {
	s := &Server{
		pipeline: pipeline,
		actuator: actuator,
		hub:      hub,
		log:      log,
		upgrader: websocket.Upgrader{
			// Observers are dashboards on other origins; the feed is
			// read-only so cross-origin upgrades are accepted.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/sensors/events", s.ingestEvent)
		r.Post("/commands/open", s.overrideCommand(model.ActionOpen))
		r.Post("/commands/close", s.overrideCommand(model.ActionClose))
	})
	r.Get("/ws", s.serveWS)
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ingestEvent is the HTTP fallback ingress; it funnels into the same
// pipeline entry point as the broker consumer.
func (s *Server) ingestEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.SensorEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sensor event: " + err.Error()})
		return
	}
	if ev.DeviceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "device_id is required"})
		return
	}
	ev.EnsureID()
	if err := s.pipeline.HandleSensorEvent(r.Context(), ev); err != nil {
		s.log.Errorf("pipeline run for event %s failed: %v", ev.EventID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error(), "event_id": ev.EventID})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true, "event_id": ev.EventID})
}

// overrideCommand lets an operator force the barrier open or closed,
// bypassing the decision pipeline entirely.
func (s *Server) overrideCommand(action model.CommandAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd model.Command
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid command: " + err.Error()})
			return
		}
		if cmd.DeviceID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "device_id is required"})
			return
		}
		cmd.Action = action
		if cmd.RequestID == "" {
			cmd.RequestID = uuid.NewString()
		}
		if cmd.IssuedAt.IsZero() {
			cmd.IssuedAt = time.Now().UTC()
		}
		if err := s.actuator.PublishCommand(r.Context(), cmd); err != nil {
			s.log.Errorf("override %s for %s failed: %v", action, cmd.DeviceID, err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "sent", "request_id": cmd.RequestID})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
