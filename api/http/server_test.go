package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfosobral/UniParking/core/model"
	"github.com/alfosobral/UniParking/infra/logger"
	"github.com/alfosobral/UniParking/internal/feed"
)

type capturePipeline struct {
	events []model.SensorEvent
	err    error
}

func (p *capturePipeline) HandleSensorEvent(_ context.Context, ev model.SensorEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type captureActuator struct {
	cmds []model.Command
	err  error
}

func (a *captureActuator) PublishCommand(_ context.Context, cmd model.Command) error {
	if a.err != nil {
		return a.err
	}
	a.cmds = append(a.cmds, cmd)
	return nil
}

func newTestRouter(p *capturePipeline, a *captureActuator) http.Handler {
	return NewRouter(p, a, feed.NewHub(logger.NopLogger{}), logger.NopLogger{})
}

func TestIngestEventAccepted(t *testing.T) {
	pipe := &capturePipeline{}
	r := newTestRouter(pipe, &captureActuator{})

	body := `{"device_id":"gate-1","type":"PLATE_READ","payload":{"plate":"SBA1234"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sensors/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["accepted"])
	assert.NotEmpty(t, resp["event_id"], "missing id must be generated")

	require.Len(t, pipe.events, 1)
	assert.Equal(t, "gate-1", pipe.events[0].DeviceID)
}

func TestIngestEventRejectsBadInput(t *testing.T) {
	r := newTestRouter(&capturePipeline{}, &captureActuator{})

	req := httptest.NewRequest(http.MethodPost, "/v1/sensors/events", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/sensors/events", strings.NewReader(`{"type":"HEALTH"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "device_id is mandatory")
}

func TestOverrideForcesAction(t *testing.T) {
	act := &captureActuator{}
	r := newTestRouter(&capturePipeline{}, act)

	// The posted action is ignored; the endpoint decides.
	body, _ := json.Marshal(model.Command{DeviceID: "gate-1", Action: model.ActionOpen})
	req := httptest.NewRequest(http.MethodPost, "/v1/commands/close", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, act.cmds, 1)
	assert.Equal(t, model.ActionClose, act.cmds[0].Action)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sent", resp["status"])
	assert.NotEmpty(t, resp["request_id"])
}

func TestOverrideReportsTransportFailure(t *testing.T) {
	act := &captureActuator{err: errors.New("mqtt client not connected")}
	r := newTestRouter(&capturePipeline{}, act)

	req := httptest.NewRequest(http.MethodPost, "/v1/commands/open", strings.NewReader(`{"device_id":"gate-1"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(&capturePipeline{}, &captureActuator{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebsocketObserverReceivesTopics(t *testing.T) {
	hub := feed.NewHub(logger.NopLogger{})
	r := NewRouter(&capturePipeline{}, &captureActuator{}, hub, logger.NopLogger{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?device_id=gate-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	// The join happens just after the upgrade response; wait for it.
	require.Eventually(t, func() bool {
		return hub.Observers(feed.DeviceTopic("gate-1")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish(feed.DeviceTopic("gate-1"), feed.Message{Type: "sensor_event", DeviceID: "gate-1"})
	hub.Publish(feed.SpotFeedTopic, feed.Message{Type: "spot_assigned", DeviceID: "gate-1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var first, second feed.Message
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "sensor_event", first.Type)
	assert.Equal(t, "spot_assigned", second.Type)
}
