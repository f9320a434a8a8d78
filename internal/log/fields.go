// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldBus       = "bus"
	FieldBusID     = "bus_id"

	// Process / bus fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldHandle    = "handle"
	FieldEventID   = "event_id"
	FieldReason    = "reason"

	// Heartbeat fields
	FieldBeat       = "beat"
	FieldDispatched = "dispatched"

	// Path / network fields
	FieldPath   = "path"
	FieldListen = "listen"
)
