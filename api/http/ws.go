package httpapi

import (
	"net/http"

	"github.com/alfosobral/UniParking/internal/feed"
)

// serveWS upgrades the connection and joins the observer to its topics:
// always the shared spot feed, plus the gate topic selected by the
// device_id query parameter.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	topics := []string{feed.SpotFeedTopic}
	if deviceID := r.URL.Query().Get("device_id"); deviceID != "" {
		topics = append(topics, feed.DeviceTopic(deviceID))
	}
	s.hub.Join(conn, topics...)

	// Observers only listen; the read loop exists to detect disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.Leave(conn)
				return
			}
		}
	}()
}
