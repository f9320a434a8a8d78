// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Bus attributes
	BusNameKey        = "evtbus.bus"
	EventIDKey        = "evtbus.event_id"
	PayloadLenKey     = "evtbus.payload_len"
	MatchedKey        = "evtbus.matched"
	InvokedKey        = "evtbus.invoked"
	DispatchSpanName  = "evtbus.dispatch"
	HeartbeatSpanName = "evtbus.heartbeat"
)

// EventAttributes describes an event about to be dispatched.
func EventAttributes(bus string, eventID uint16, payloadLen int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(BusNameKey, bus),
		attribute.Int(EventIDKey, int(eventID)),
		attribute.Int(PayloadLenKey, payloadLen),
	}
}

// DispatchResultAttributes describes how many subscriptions matched an event
// and how many were actually invoked.
func DispatchResultAttributes(matched, invoked int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(MatchedKey, matched),
		attribute.Int(InvokedKey, invoked),
	}
}
