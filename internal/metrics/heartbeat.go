// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	heartbeatBeatsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evtbus_heartbeat_beats_total",
		Help: "Total number of heartbeat ticks",
	})

	heartbeatLastTick = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evtbus_heartbeat_last_tick_timestamp_seconds",
		Help: "Unix timestamp of the last heartbeat tick",
	})

	heartbeatEventsDispatched = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evtbus_heartbeat_events_dispatched",
		Help: "Dispatched callback count observed at the last heartbeat",
	})

	heartbeatStatusWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evtbus_heartbeat_status_write_errors_total",
		Help: "Total number of failed heartbeat status file writes",
	})
)

// RecordHeartbeat records one heartbeat tick.
func RecordHeartbeat(at time.Time, dispatched uint64) {
	heartbeatBeatsTotal.Inc()
	heartbeatLastTick.Set(float64(at.Unix()))
	heartbeatEventsDispatched.Set(float64(dispatched))
}

// IncHeartbeatStatusWriteError records a failed status file write.
func IncHeartbeatStatusWriteError() {
	heartbeatStatusWriteErrors.Inc()
}
