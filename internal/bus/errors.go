// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import "errors"

var (
	// ErrInvalidOptions is returned by New when a capacity is out of range.
	ErrInvalidOptions = errors.New("invalid bus options")

	// ErrAlreadyStarted is returned when Start is called on a running bus.
	// Re-initialising a live bus is a caller error; construct a new Bus instead.
	ErrAlreadyStarted = errors.New("bus already started")

	// ErrClosed is returned when Start is called after Close.
	ErrClosed = errors.New("bus closed")
)
