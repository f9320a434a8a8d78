// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BusPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evtbus_published_total",
		Help: "Total number of events accepted into the bus queue",
	}, []string{"bus"})

	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evtbus_publish_dropped_total",
		Help: "Total number of rejected publishes by bus and reason",
	}, []string{"bus", "reason"})

	BusDispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evtbus_dispatched_total",
		Help: "Total number of callback invocations performed by the dispatcher",
	}, []string{"bus"})

	BusCallbackPanicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evtbus_callback_panics_total",
		Help: "Total number of recovered callback panics",
	}, []string{"bus"})

	BusQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evtbus_queue_depth",
		Help: "Number of events waiting for dispatch",
	}, []string{"bus"})

	BusActiveSubscriptions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evtbus_active_subscriptions",
		Help: "Number of active subscription slots",
	}, []string{"bus"})
)

// BusRecorder holds the per-bus metric children so the publish and dispatch
// paths avoid label lookups.
type BusRecorder struct {
	name       string
	published  prometheus.Counter
	dispatched prometheus.Counter
	panics     prometheus.Counter
	queueDepth prometheus.Gauge
	activeSubs prometheus.Gauge
}

// ForBus resolves the metric children for the named bus.
func ForBus(name string) *BusRecorder {
	if name == "" {
		name = "unknown"
	}
	return &BusRecorder{
		name:       name,
		published:  BusPublishedTotal.WithLabelValues(name),
		dispatched: BusDispatchedTotal.WithLabelValues(name),
		panics:     BusCallbackPanicsTotal.WithLabelValues(name),
		queueDepth: BusQueueDepth.WithLabelValues(name),
		activeSubs: BusActiveSubscriptions.WithLabelValues(name),
	}
}

// Published records an accepted publish.
func (r *BusRecorder) Published() {
	r.published.Inc()
}

// Dropped records a rejected publish with a concrete reason.
func (r *BusRecorder) Dropped(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	BusDroppedTotal.WithLabelValues(r.name, reason).Inc()
}

// Dispatched records one callback invocation.
func (r *BusRecorder) Dispatched() {
	r.dispatched.Inc()
}

// CallbackPanic records a recovered callback panic.
func (r *BusRecorder) CallbackPanic() {
	r.panics.Inc()
}

// QueueDepth sets the current number of queued events.
func (r *BusRecorder) QueueDepth(n int) {
	r.queueDepth.Set(float64(n))
}

// ActiveSubscriptions sets the current number of live subscriptions.
func (r *BusRecorder) ActiveSubscriptions(n int) {
	r.activeSubs.Set(float64(n))
}
