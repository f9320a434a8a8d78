// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package heartbeat reports periodic liveness independent of event traffic.
package heartbeat

import (
	"context"
	"sync/atomic"
	"time"

	xglog "github.com/ManuGH/evtbus/internal/log"
	"github.com/ManuGH/evtbus/internal/metrics"
	"github.com/ManuGH/evtbus/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DispatchCounter is the read-only view of the bus dispatched counter.
type DispatchCounter interface {
	Dispatched() uint64
}

// Snapshot is a consistent-enough copy of the monitor counters.
type Snapshot struct {
	Enabled          bool      `json:"enabled"`
	Interval         string    `json:"interval"`
	Beats            uint64    `json:"beats"`
	LastTick         time.Time `json:"last_tick,omitempty"`
	EventsDispatched uint64    `json:"events_dispatched"`
}

// Option customises a Monitor.
type Option func(*Monitor)

// WithStatusFile makes the monitor rewrite path atomically on every beat.
func WithStatusFile(path string) Option {
	return func(m *Monitor) { m.statusFile = path }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithTracer overrides the tracer used for beat spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Monitor) { m.tracer = t }
}

// Monitor counts ticks at a fixed interval and samples the dispatched counter
// of its source on every tick.
type Monitor struct {
	interval   time.Duration
	source     DispatchCounter
	statusFile string
	logger     zerolog.Logger
	tracer     trace.Tracer

	beats    atomic.Uint64
	lastTick atomic.Int64 // unix nanos, 0 before the first tick
}

// New creates a monitor. An interval of zero disables it: Run returns at once
// and every counter stays zero.
func New(interval time.Duration, source DispatchCounter, opts ...Option) *Monitor {
	m := &Monitor{
		interval: interval,
		source:   source,
		logger:   xglog.WithComponent("heartbeat"),
		tracer:   telemetry.Tracer("github.com/ManuGH/evtbus/internal/heartbeat"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enabled reports whether the monitor ticks at all.
func (m *Monitor) Enabled() bool {
	return m.interval > 0
}

// Run ticks until ctx is canceled. It always returns nil.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.Enabled() {
		m.logger.Info().Str(xglog.FieldEvent, "heartbeat.disabled").Msg("heartbeat disabled")
		return nil
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info().
		Str(xglog.FieldEvent, "heartbeat.started").
		Dur("interval", m.interval).
		Msg("heartbeat started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			m.beat(ctx, now)
		}
	}
}

func (m *Monitor) beat(ctx context.Context, now time.Time) {
	_, span := m.tracer.Start(ctx, telemetry.HeartbeatSpanName)
	defer span.End()

	n := m.beats.Add(1)
	m.lastTick.Store(now.UnixNano())
	dispatched := m.EventsDispatched()

	metrics.RecordHeartbeat(now, dispatched)
	span.SetAttributes(
		attribute.Int64("evtbus.heartbeat.beat", int64(n)),
		attribute.Int64("evtbus.heartbeat.dispatched", int64(dispatched)),
	)

	m.logger.Debug().
		Str(xglog.FieldEvent, "heartbeat.beat").
		Uint64(xglog.FieldBeat, n).
		Uint64(xglog.FieldDispatched, dispatched).
		Msg("heartbeat")

	if m.statusFile != "" {
		if err := writeStatus(m.statusFile, m.Snapshot()); err != nil {
			metrics.IncHeartbeatStatusWriteError()
			span.RecordError(err)
			m.logger.Warn().Err(err).
				Str(xglog.FieldEvent, "heartbeat.status_write_failed").
				Str(xglog.FieldPath, m.statusFile).
				Msg("failed to write heartbeat status")
		}
	}
}

// Beats returns the number of ticks so far.
func (m *Monitor) Beats() uint64 {
	return m.beats.Load()
}

// LastTick returns the time of the most recent tick, or the zero time.
func (m *Monitor) LastTick() time.Time {
	ns := m.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// EventsDispatched returns the source's dispatched counter. It does not reset
// on ticks.
func (m *Monitor) EventsDispatched() uint64 {
	if m.source == nil {
		return 0
	}
	return m.source.Dispatched()
}

func (m *Monitor) Snapshot() Snapshot {
	return Snapshot{
		Enabled:          m.Enabled(),
		Interval:         m.interval.String(),
		Beats:            m.Beats(),
		LastTick:         m.LastTick(),
		EventsDispatched: m.EventsDispatched(),
	}
}
