// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestBusRecorder(t *testing.T) {
	r := ForBus("recorder-test")

	r.Published()
	r.Published()
	r.Dropped("queue_full")
	r.Dropped("")
	r.Dispatched()
	r.CallbackPanic()
	r.QueueDepth(5)
	r.ActiveSubscriptions(3)

	require.Equal(t, 2.0, counterValue(t, BusPublishedTotal.WithLabelValues("recorder-test")))
	require.Equal(t, 1.0, counterValue(t, BusDroppedTotal.WithLabelValues("recorder-test", "queue_full")))
	require.Equal(t, 1.0, counterValue(t, BusDroppedTotal.WithLabelValues("recorder-test", "unknown")))
	require.Equal(t, 1.0, counterValue(t, BusDispatchedTotal.WithLabelValues("recorder-test")))
	require.Equal(t, 1.0, counterValue(t, BusCallbackPanicsTotal.WithLabelValues("recorder-test")))
	require.Equal(t, 5.0, gaugeValue(t, BusQueueDepth.WithLabelValues("recorder-test")))
	require.Equal(t, 3.0, gaugeValue(t, BusActiveSubscriptions.WithLabelValues("recorder-test")))
}

func TestRecordHeartbeatExposed(t *testing.T) {
	RecordHeartbeat(time.Unix(1700000000, 0), 12)

	w := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	require.True(t, strings.Contains(body, "evtbus_heartbeat_events_dispatched 12"), body)
	require.Contains(t, body, "evtbus_heartbeat_last_tick_timestamp_seconds 1.7e+09")
	require.Contains(t, body, "evtbus_heartbeat_beats_total")
}
