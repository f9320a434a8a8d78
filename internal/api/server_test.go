// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/evtbus/internal/bus"
	"github.com/ManuGH/evtbus/internal/heartbeat"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeHeartbeat struct{ snap heartbeat.Snapshot }

func (f fakeHeartbeat) Snapshot() heartbeat.Snapshot { return f.snap }

func newBus(t *testing.T, opts bus.Options) *bus.Bus {
	t.Helper()
	l := zerolog.Nop()
	opts.Logger = &l
	b, err := bus.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b
}

func serve(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "203.0.113.7:5555"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	b := newBus(t, bus.Options{Name: "api-health"})
	h := New(Config{}, b, nil).Handler()

	w := serve(h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code, "bus not started")

	require.NoError(t, b.Start())
	w = serve(h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	require.NoError(t, b.Close(context.Background()))
	w = serve(h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPublish_DeliversBody(t *testing.T) {
	b := newBus(t, bus.Options{Name: "api-publish", MaxPayload: 16})
	got := make(chan []byte, 1)
	b.Subscribe(0x2A, func(ev *bus.Event) { got <- append([]byte(nil), ev.Payload()...) })
	require.NoError(t, b.Start())

	h := New(Config{}, b, nil).Handler()
	w := serve(h, http.MethodPost, "/events/0x2a", []byte("Hello!"))
	require.Equal(t, http.StatusAccepted, w.Code)
	require.JSONEq(t, `{"event_id":42,"bytes":6}`, w.Body.String())

	select {
	case p := <-got:
		require.Equal(t, "Hello!", string(p))
	case <-time.After(2 * time.Second):
		t.Fatal("event not dispatched")
	}
}

func TestPublish_StatusCodes(t *testing.T) {
	b := newBus(t, bus.Options{Name: "api-codes", MaxPayload: 4})
	require.NoError(t, b.Start())
	h := New(Config{}, b, nil).Handler()

	require.Equal(t, http.StatusBadRequest, serve(h, http.MethodPost, "/events/nope", nil).Code)
	require.Equal(t, http.StatusBadRequest, serve(h, http.MethodPost, "/events/70000", nil).Code)
	require.Equal(t, http.StatusRequestEntityTooLarge,
		serve(h, http.MethodPost, "/events/1", []byte("12345")).Code)
	require.Equal(t, http.StatusAccepted, serve(h, http.MethodPost, "/events/1", []byte("1234")).Code)
	require.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodGet, "/events/1", nil).Code)

	require.NoError(t, b.Close(context.Background()))
	require.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodPost, "/events/1", nil).Code)
}

func TestPublish_RateLimited(t *testing.T) {
	b := newBus(t, bus.Options{Name: "api-limit"})
	require.NoError(t, b.Start())
	h := New(Config{PublishLimit: 2, PublishWindow: time.Minute}, b, nil).Handler()

	require.Equal(t, http.StatusAccepted, serve(h, http.MethodPost, "/events/1", nil).Code)
	require.Equal(t, http.StatusAccepted, serve(h, http.MethodPost, "/events/1", nil).Code)
	require.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodPost, "/events/1", nil).Code)

	// Read-only routes are not limited.
	require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/status", nil).Code)
}

func TestStatus_IncludesBusAndHeartbeat(t *testing.T) {
	b := newBus(t, bus.Options{Name: "api-status", QueueCapacity: 3})
	hb := fakeHeartbeat{snap: heartbeat.Snapshot{Enabled: true, Interval: "1s", Beats: 9, EventsDispatched: 4}}
	h := New(Config{}, b, hb).Handler()

	w := serve(h, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "api-status", resp.Bus.Name)
	require.Equal(t, 3, resp.Bus.QueueCapacity)
	require.NotNil(t, resp.Heartbeat)
	require.EqualValues(t, 9, resp.Heartbeat.Beats)
}

func TestMetricsEndpoint(t *testing.T) {
	b := newBus(t, bus.Options{Name: "api-metrics"})
	h := New(Config{}, b, nil).Handler()

	require.False(t, b.Publish(1, make([]byte, bus.DefaultMaxPayload+1)))

	w := serve(h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.True(t, strings.Contains(body, `evtbus_publish_dropped_total{bus="api-metrics",reason="payload_too_large"} 1`), body)
	require.Contains(t, body, "evtbus_queue_depth")
}
