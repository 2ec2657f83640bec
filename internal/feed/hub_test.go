package feed

import (
	"errors"
	"sync"
	"testing"
)

type recorderConn struct {
	mu     sync.Mutex
	frames []Message
	fail   bool
	closed bool
}

func (r *recorderConn) WriteJSON(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("broken pipe")
	}
	r.frames = append(r.frames, v.(Message))
	return nil
}

func (r *recorderConn) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

func TestPublishReachesTopicObserversOnly(t *testing.T) {
	h := NewHub(nopLogger{})
	gate := &recorderConn{}
	other := &recorderConn{}
	h.Join(gate, DeviceTopic("gate-1"), SpotFeedTopic)
	h.Join(other, DeviceTopic("gate-2"), SpotFeedTopic)

	h.Publish(DeviceTopic("gate-1"), Message{Type: "sensor_event", DeviceID: "gate-1"})
	if len(gate.frames) != 1 {
		t.Fatalf("expected 1 frame on gate-1 observer, got %d", len(gate.frames))
	}
	if len(other.frames) != 0 {
		t.Fatalf("gate-2 observer should not receive gate-1 traffic")
	}

	h.Publish(SpotFeedTopic, Message{Type: "spot_assigned"})
	if len(gate.frames) != 2 || len(other.frames) != 1 {
		t.Fatalf("spot feed should reach both observers")
	}
}

func TestFailedSendEvictsObserverEverywhere(t *testing.T) {
	h := NewHub(nopLogger{})
	bad := &recorderConn{fail: true}
	good := &recorderConn{}
	h.Join(bad, DeviceTopic("gate-1"), SpotFeedTopic)
	h.Join(good, DeviceTopic("gate-1"))

	h.Publish(DeviceTopic("gate-1"), Message{Type: "decision"})
	if len(good.frames) != 1 {
		t.Fatalf("healthy observer must still receive the message")
	}
	if !bad.closed {
		t.Fatalf("failed observer should be closed")
	}
	if h.Observers(SpotFeedTopic) != 0 {
		t.Fatalf("failed observer must leave all topics, not just the failing one")
	}
}

func TestPerObserverOrderPreserved(t *testing.T) {
	h := NewHub(nopLogger{})
	c := &recorderConn{}
	h.Join(c, DeviceTopic("gate-1"))

	seq := []string{"sensor_event", "command", "decision"}
	for _, typ := range seq {
		h.Publish(DeviceTopic("gate-1"), Message{Type: typ, DeviceID: "gate-1"})
	}
	if len(c.frames) != len(seq) {
		t.Fatalf("expected %d frames got %d", len(seq), len(c.frames))
	}
	for i, typ := range seq {
		if c.frames[i].Type != typ {
			t.Fatalf("frame %d: expected %s got %s", i, typ, c.frames[i].Type)
		}
	}
}

func TestLeaveIdempotent(t *testing.T) {
	h := NewHub(nopLogger{})
	c := &recorderConn{}
	h.Join(c, SpotFeedTopic)
	h.Leave(c)
	h.Leave(c)
	if h.Observers(SpotFeedTopic) != 0 {
		t.Fatalf("expected no observers after leave")
	}
}
