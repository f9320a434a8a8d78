// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"fmt"
	"runtime/debug"

	xglog "github.com/ManuGH/evtbus/internal/log"
	"github.com/ManuGH/evtbus/internal/telemetry"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// dispatcher is the single consumer of the queue. Its event record and
// snapshot buffer are reused for every event.
type dispatcher struct {
	b    *Bus
	cur  Event
	snap []snapEntry
}

func newDispatcher(b *Bus) *dispatcher {
	return &dispatcher{
		b:    b,
		cur:  newEvent(b.maxPayload),
		snap: make([]snapEntry, 0, b.tableCapacity),
	}
}

// run blocks until stop is closed, then dispatches whatever is still queued
// and returns.
func (d *dispatcher) run(stop <-chan struct{}) {
	for {
		d.drain()
		select {
		case <-d.b.queue.ready:
		case <-stop:
			d.drain()
			return
		}
	}
}

func (d *dispatcher) drain() {
	for {
		if _, ok := d.b.queue.pop(&d.cur); !ok {
			return
		}
		d.dispatch(&d.cur)
	}
}

// dispatch invokes every subscription that matched ev at snapshot time and is
// still live when its turn comes.
func (d *dispatcher) dispatch(ev *Event) {
	_, span := d.b.tracer.Start(context.Background(), telemetry.DispatchSpanName,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(telemetry.EventAttributes(d.b.name, uint16(ev.ID), ev.Len())...),
	)

	d.snap = d.b.table.snapshot(ev.ID, d.snap[:0])

	invoked := 0
	for _, e := range d.snap {
		fn, ok := d.b.table.lookup(e)
		if !ok {
			continue
		}
		if !d.invoke(fn, ev, e) {
			span.SetStatus(codes.Error, "callback panic")
			break
		}
		invoked++
	}

	span.SetAttributes(telemetry.DispatchResultAttributes(len(d.snap), invoked)...)
	span.End()
}

// invoke runs one callback. It returns false when the callback panicked and
// the panic was recovered; the rest of the event's snapshot is then abandoned.
func (d *dispatcher) invoke(fn Callback, ev *Event, e snapEntry) (ok bool) {
	if d.b.recoverPanics {
		defer func() {
			if r := recover(); r != nil {
				ok = false
				d.b.panics.Add(1)
				d.b.metrics.CallbackPanic()
				d.b.logger.Error().
					Str(xglog.FieldEvent, "bus.callback_panic").
					Uint16(xglog.FieldEventID, uint16(ev.ID)).
					Str(xglog.FieldHandle, Handle{slot: e.slot, gen: e.gen}.String()).
					Str("panic", fmt.Sprint(r)).
					Bytes("stack", debug.Stack()).
					Msg("callback panicked, abandoning event")
			}
		}()
	}

	fn(ev)

	d.b.dispatched.Add(1)
	d.b.metrics.Dispatched()
	return true
}
