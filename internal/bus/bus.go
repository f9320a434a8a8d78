// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	xglog "github.com/ManuGH/evtbus/internal/log"
	"github.com/ManuGH/evtbus/internal/metrics"
	"github.com/ManuGH/evtbus/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	DefaultName          = "evtbus"
	DefaultMaxPayload    = 64
	DefaultQueueCapacity = 32
	DefaultTableCapacity = 16

	// Drop reasons reported to metrics and logs.
	DropQueueFull       = "queue_full"
	DropPayloadTooLarge = "payload_too_large"
	DropClosed          = "closed"

	dropLogInterval = time.Second
)

// Options configures a Bus. Zero values select the defaults.
type Options struct {
	// Name labels metrics and log entries (default: "evtbus").
	Name string

	// MaxPayload is the largest payload accepted by Publish, in bytes.
	MaxPayload int

	// QueueCapacity is the number of events that can wait for dispatch.
	QueueCapacity int

	// TableCapacity is the number of subscription slots.
	TableCapacity int

	// RecoverPanics turns a panicking callback into a logged, counted fault
	// that ends dispatch of the current event. When false the panic crashes
	// the process.
	RecoverPanics bool

	// Logger overrides the component logger.
	Logger *zerolog.Logger

	// Tracer overrides the tracer used for dispatch spans.
	Tracer trace.Tracer
}

func (o Options) withDefaults() (Options, error) {
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.MaxPayload == 0 {
		o.MaxPayload = DefaultMaxPayload
	}
	if o.QueueCapacity == 0 {
		o.QueueCapacity = DefaultQueueCapacity
	}
	if o.TableCapacity == 0 {
		o.TableCapacity = DefaultTableCapacity
	}
	if o.MaxPayload < 0 {
		return o, fmt.Errorf("%w: max payload %d", ErrInvalidOptions, o.MaxPayload)
	}
	if o.QueueCapacity < 0 {
		return o, fmt.Errorf("%w: queue capacity %d", ErrInvalidOptions, o.QueueCapacity)
	}
	if o.TableCapacity < 0 {
		return o, fmt.Errorf("%w: table capacity %d", ErrInvalidOptions, o.TableCapacity)
	}
	return o, nil
}

type lifecycle int

const (
	stateNew lifecycle = iota
	stateRunning
	stateClosed
)

// Stats is a point-in-time view of a bus.
type Stats struct {
	Name             string `json:"name"`
	ID               string `json:"id"`
	Running          bool   `json:"running"`
	QueueLength      int    `json:"queue_length"`
	QueueCapacity    int    `json:"queue_capacity"`
	Subscriptions    int    `json:"subscriptions"`
	TableCapacity    int    `json:"table_capacity"`
	MaxPayload       int    `json:"max_payload"`
	Published        uint64 `json:"published"`
	DroppedQueueFull uint64 `json:"dropped_queue_full"`
	DroppedTooLarge  uint64 `json:"dropped_too_large"`
	DroppedClosed    uint64 `json:"dropped_closed"`
	Dispatched       uint64 `json:"dispatched"`
	CallbackPanics   uint64 `json:"callback_panics"`
}

// Bus owns a subscription table, an event queue and the dispatcher goroutine
// that connects them.
type Bus struct {
	id            string
	name          string
	maxPayload    int
	tableCapacity int
	recoverPanics bool

	table   *table
	queue   *queue
	logger  zerolog.Logger
	tracer  trace.Tracer
	metrics *metrics.BusRecorder

	dropLog rate.Sometimes
	fullLog rate.Sometimes

	mu    sync.Mutex
	state lifecycle
	stop  chan struct{}
	done  chan struct{}

	published  atomic.Uint64
	dropFull   atomic.Uint64
	dropSize   atomic.Uint64
	dropClosed atomic.Uint64
	dispatched atomic.Uint64
	panics     atomic.Uint64
}

// New allocates a bus with every slot inactive and an empty queue. The
// dispatcher does not run until Start.
func New(opts Options) (*Bus, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := xglog.WithComponent("bus")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	logger = logger.With().
		Str(xglog.FieldBus, opts.Name).
		Str(xglog.FieldBusID, id).
		Logger()

	tracer := opts.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer("github.com/ManuGH/evtbus/internal/bus")
	}

	b := &Bus{
		id:            id,
		name:          opts.Name,
		maxPayload:    opts.MaxPayload,
		tableCapacity: opts.TableCapacity,
		recoverPanics: opts.RecoverPanics,
		table:         newTable(opts.TableCapacity),
		queue:         newQueue(opts.QueueCapacity, opts.MaxPayload),
		logger:        logger,
		tracer:        tracer,
		metrics:       metrics.ForBus(opts.Name),
		dropLog:       rate.Sometimes{Interval: dropLogInterval},
		fullLog:       rate.Sometimes{Interval: dropLogInterval},
	}
	b.metrics.QueueDepth(0)
	b.metrics.ActiveSubscriptions(0)
	b.queue.observe = b.metrics.QueueDepth
	b.table.observe = b.metrics.ActiveSubscriptions
	return b, nil
}

// Start launches the dispatcher goroutine. Events published before Start are
// dispatched once it runs. A bus can be started once.
func (b *Bus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateRunning:
		return fmt.Errorf("start bus %q: %w", b.name, ErrAlreadyStarted)
	case stateClosed:
		return fmt.Errorf("start bus %q: %w", b.name, ErrClosed)
	}

	b.state = stateRunning
	b.stop = make(chan struct{})
	b.done = make(chan struct{})

	d := newDispatcher(b)
	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		d.run(stop)
	}(b.stop, b.done)

	b.logger.Info().
		Str(xglog.FieldEvent, "bus.started").
		Int("max_payload", b.maxPayload).
		Int("queue_capacity", b.queue.capacity()).
		Int("table_capacity", b.tableCapacity).
		Msg("event bus started")
	return nil
}

// Close stops accepting publishes, waits for the dispatcher to deliver what is
// already queued and returns once it has exited. It returns ctx's error if the
// drain does not finish in time. Close must not be called from a callback.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	prev := b.state
	b.state = stateClosed
	done := b.done
	if prev == stateRunning {
		b.queue.close()
		close(b.stop)
	} else if prev == stateNew {
		b.queue.close()
	}
	b.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		if prev == stateRunning {
			b.logger.Info().
				Str(xglog.FieldEvent, "bus.stopped").
				Uint64("dispatched", b.dispatched.Load()).
				Msg("event bus stopped")
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close bus %q: %w", b.name, ctx.Err())
	}
}

// Publish queues a copy of payload for asynchronous dispatch. It returns false
// if the payload exceeds the configured maximum, the queue is full or the bus
// is closed. Publish never blocks.
func (b *Bus) Publish(id EventID, payload []byte) bool {
	res, _ := b.queue.push(id, payload)
	switch res {
	case pushOK:
		b.published.Add(1)
		b.metrics.Published()
		return true
	case pushFull:
		b.dropFull.Add(1)
		b.drop(id, DropQueueFull, len(payload))
	case pushTooLarge:
		b.dropSize.Add(1)
		b.drop(id, DropPayloadTooLarge, len(payload))
	case pushClosed:
		b.dropClosed.Add(1)
		b.drop(id, DropClosed, len(payload))
	}
	return false
}

func (b *Bus) drop(id EventID, reason string, size int) {
	b.metrics.Dropped(reason)
	b.dropLog.Do(func() {
		b.logger.Warn().
			Str(xglog.FieldEvent, "bus.publish_dropped").
			Uint16(xglog.FieldEventID, uint16(id)).
			Str(xglog.FieldReason, reason).
			Int("payload_len", size).
			Uint64("dropped_queue_full", b.dropFull.Load()).
			Uint64("dropped_too_large", b.dropSize.Load()).
			Msg("event bus rejected publish")
	})
}

// Subscribe registers fn for events with the given id. It returns
// InvalidHandle when the table is full or fn is nil.
func (b *Bus) Subscribe(id EventID, fn Callback) Handle {
	h := b.table.subscribe(id, fn)
	if !h.Valid() {
		if fn != nil {
			b.fullLog.Do(func() {
				b.logger.Warn().
					Str(xglog.FieldEvent, "bus.table_full").
					Uint16(xglog.FieldEventID, uint16(id)).
					Int("table_capacity", b.tableCapacity).
					Msg("subscription table full")
			})
		}
		return h
	}
	b.logger.Debug().
		Str(xglog.FieldEvent, "bus.subscribed").
		Uint16(xglog.FieldEventID, uint16(id)).
		Str(xglog.FieldHandle, h.String()).
		Msg("subscribed")
	return h
}

// SubscribeWith registers fn with a typed user context that is passed back on
// every invocation. The bus never inspects userCtx.
func SubscribeWith[T any](b *Bus, id EventID, userCtx T, fn func(ev *Event, userCtx T)) Handle {
	if fn == nil {
		return InvalidHandle
	}
	return b.Subscribe(id, func(ev *Event) {
		fn(ev, userCtx)
	})
}

// Unsubscribe releases the subscription h refers to. Invalid, stale and
// already released handles are ignored. It is safe to call from any callback,
// including the one h belongs to.
func (b *Bus) Unsubscribe(h Handle) {
	if !b.table.unsubscribe(h) {
		return
	}
	b.logger.Debug().
		Str(xglog.FieldEvent, "bus.unsubscribed").
		Str(xglog.FieldHandle, h.String()).
		Msg("unsubscribed")
}

// Dispatched returns the number of callback invocations completed so far.
// An event with three matching subscribers adds three.
func (b *Bus) Dispatched() uint64 {
	return b.dispatched.Load()
}

// ID returns the instance identifier attached to log entries.
func (b *Bus) ID() string {
	return b.id
}

// Name returns the configured bus name.
func (b *Bus) Name() string {
	return b.name
}

// MaxPayload returns the largest accepted payload size.
func (b *Bus) MaxPayload() int {
	return b.maxPayload
}

// Running reports whether the dispatcher has been started and not closed.
func (b *Bus) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == stateRunning
}

// Stats returns counters and occupancy.
func (b *Bus) Stats() Stats {
	active, capacity := b.table.counts()
	return Stats{
		Name:             b.name,
		ID:               b.id,
		Running:          b.Running(),
		QueueLength:      b.queue.len(),
		QueueCapacity:    b.queue.capacity(),
		Subscriptions:    active,
		TableCapacity:    capacity,
		MaxPayload:       b.maxPayload,
		Published:        b.published.Load(),
		DroppedQueueFull: b.dropFull.Load(),
		DroppedTooLarge:  b.dropSize.Load(),
		DroppedClosed:    b.dropClosed.Load(),
		Dispatched:       b.dispatched.Load(),
		CallbackPanics:   b.panics.Load(),
	}
}
