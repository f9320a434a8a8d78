// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus implements a bounded, in-process publish/subscribe event bus.
//
// Producers call [Bus.Publish] with a numeric [EventID] and an optional payload.
// The payload is copied into a preallocated queue record before Publish returns,
// so the caller's buffer can be reused immediately. A single dispatcher goroutine
// drains the queue in publish order and invokes every live subscription whose
// identifier matches, one after another, in subscription-table order.
//
// # Memory
//
// All storage is allocated by [New]: the subscription table holds
// Options.TableCapacity slots and the queue holds Options.QueueCapacity records
// of Options.MaxPayload bytes each. Nothing grows afterwards. When the queue is
// full the newest event is rejected (drop-new) and Publish returns false.
//
// # Handles
//
// [Bus.Subscribe] returns a [Handle] pairing a slot index with the slot's
// generation. Unsubscribing bumps the generation, so a handle kept after its
// subscription ended can never match a later subscriber that reuses the slot.
// Unsubscribe with a stale, invalid or already released handle is a no-op.
// The generation is a uint32; a handle that survives 2^32-1 reuse cycles of its
// slot would alias again. That limit is accepted.
//
// # Dispatch
//
// For every event the dispatcher takes a snapshot of the matching slots and
// releases the table lock before running callbacks. Each entry is re-validated
// right before its invocation, so a callback may Subscribe, Unsubscribe
// (including its own handle) or Publish without deadlocking, and an
// unsubscribe takes effect for every invocation not yet reached.
//
// Callbacks run on the dispatcher goroutine only, never concurrently with each
// other and never on the publisher's goroutine. A callback that blocks stalls
// every later event; callbacks are expected to be short.
package bus
