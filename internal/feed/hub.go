// Package feed implements the topic-scoped fan-out of pipeline outcomes to
// connected observers. Delivery is best-effort and synchronous: a failed send
// evicts the observer from every topic and never aborts delivery to others.
package feed

import (
	"sync"

	"github.com/alfosobral/UniParking/core/logger"
)

// SpotFeedTopic is the shared topic every observer joins; it carries spot
// assignment outcomes for the whole facility.
const SpotFeedTopic = "spots"

// DeviceTopic scopes a topic to one gate device.
func DeviceTopic(deviceID string) string { return "gate:" + deviceID }

// Message is the JSON frame delivered to observers. Type discriminates
// sensor_event, decision, command and spot_assigned frames.
type Message struct {
	Type     string `json:"type"`
	DeviceID string `json:"device_id"`
	Payload  any    `json:"payload"`
}

// Conn is the minimal observer connection surface. *websocket.Conn satisfies
// it; tests use an in-memory recorder.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Hub multiplexes messages to topic-scoped observer sets. Observers join
// topics once at connection time. The hub serializes writes per connection,
// so a single event's frames reach each observer in emission order.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[Conn]struct{}
	conns  map[Conn][]string
	log    logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[Conn]struct{}),
		conns:  make(map[Conn][]string),
		log:    log,
	}
}

// Join subscribes the connection to the given topics.
func (h *Hub) Join(c Conn, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range topics {
		set, ok := h.topics[t]
		if !ok {
			set = make(map[Conn]struct{})
			h.topics[t] = set
		}
		set[c] = struct{}{}
	}
	h.conns[c] = append(h.conns[c], topics...)
	h.log.Debugf("observer joined topics %v (observers=%d)", topics, len(h.conns))
}

// Leave removes the connection from all topics and closes it.
func (h *Hub) Leave(c Conn) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c Conn) {
	topics, ok := h.conns[c]
	if !ok {
		return
	}
	for _, t := range topics {
		delete(h.topics[t], c)
		if len(h.topics[t]) == 0 {
			delete(h.topics, t)
		}
	}
	delete(h.conns, c)
	_ = c.Close()
}

// Publish delivers the message to every observer of the topic. A write
// failure is treated as a disconnect: the observer is evicted from all
// topics and remaining observers still receive the message.
func (h *Hub) Publish(topic string, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var failed []Conn
	for c := range h.topics[topic] {
		if err := c.WriteJSON(msg); err != nil {
			h.log.Warnf("feed send to %s failed: %v", topic, err)
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.removeLocked(c)
	}
}

// Observers reports how many connections are subscribed to the topic.
func (h *Hub) Observers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}
