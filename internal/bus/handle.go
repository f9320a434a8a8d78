// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import "fmt"

// baseGeneration is the generation every slot starts with. Zero is reserved
// for InvalidHandle.
const baseGeneration uint32 = 1

// Handle references a subscription without exposing the slot itself.
// Handles are comparable values.
type Handle struct {
	slot uint32
	gen  uint32
}

// InvalidHandle is returned by Subscribe when no slot is free.
var InvalidHandle = Handle{}

// Valid reports whether h was issued by a successful Subscribe. A valid handle
// may still be stale.
func (h Handle) Valid() bool {
	return h.gen != 0
}

// Slot returns the table index the handle points at.
func (h Handle) Slot() int {
	return int(h.slot)
}

// Generation returns the slot generation captured when the handle was issued.
func (h Handle) Generation() uint32 {
	return h.gen
}

func (h Handle) String() string {
	if !h.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("%d/%d", h.slot, h.gen)
}

func nextGeneration(gen uint32) uint32 {
	gen++
	if gen == 0 {
		gen = baseGeneration
	}
	return gen
}
