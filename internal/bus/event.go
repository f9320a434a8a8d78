// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

// EventID identifies an event type.
type EventID uint16

// Event is a dispatched event record. Callbacks receive a pointer that is only
// valid for the duration of the call; copy anything that must outlive it.
type Event struct {
	ID  EventID
	n   int
	buf []byte
}

func newEvent(maxPayload int) Event {
	return Event{buf: make([]byte, maxPayload)}
}

// Len returns the payload length in bytes.
func (e *Event) Len() int {
	return e.n
}

// Payload returns the payload bytes. The slice aliases dispatcher-owned memory
// and must not be retained or modified.
func (e *Event) Payload() []byte {
	return e.buf[:e.n:e.n]
}

func (e *Event) set(id EventID, payload []byte) {
	e.ID = id
	e.n = copy(e.buf, payload)
}

func (e *Event) copyFrom(src *Event) {
	e.ID = src.ID
	e.n = copy(e.buf, src.buf[:src.n])
}

// Callback is invoked on the dispatcher goroutine for each matching event.
type Callback func(ev *Event)
