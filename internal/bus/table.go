// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import "sync"

type slot struct {
	id     EventID
	fn     Callback
	gen    uint32
	active bool
}

// snapEntry is one matching subscription captured by snapshot.
type snapEntry struct {
	slot uint32
	gen  uint32
}

// table is a fixed-capacity subscription registry. Free slots are kept on a
// stack so released slots are handed out again before the table reports full.
type table struct {
	mu     sync.RWMutex
	slots  []slot
	free   []uint32
	active int

	// observe receives the active count under the write lock, so successive
	// reports cannot arrive out of order.
	observe func(active int)
}

func newTable(capacity int) *table {
	t := &table{
		slots:   make([]slot, capacity),
		free:    make([]uint32, capacity),
		observe: func(int) {},
	}
	for i := range t.slots {
		t.slots[i].gen = baseGeneration
		// Lowest index on top so a fresh table fills in index order.
		t.free[capacity-1-i] = uint32(i)
	}
	return t
}

func (t *table) subscribe(id EventID, fn Callback) Handle {
	if fn == nil {
		return InvalidHandle
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.free)
	if n == 0 {
		return InvalidHandle
	}
	idx := t.free[n-1]
	t.free = t.free[:n-1]

	s := &t.slots[idx]
	s.id = id
	s.fn = fn
	s.active = true
	t.active++
	t.observe(t.active)

	return Handle{slot: idx, gen: s.gen}
}

// unsubscribe releases the slot h refers to. It reports whether anything was
// released; stale, invalid and already released handles are ignored.
func (t *table) unsubscribe(h Handle) bool {
	if !h.Valid() {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if int(h.slot) >= len(t.slots) {
		return false
	}
	s := &t.slots[h.slot]
	if !s.active || s.gen != h.gen {
		return false
	}

	s.active = false
	s.fn = nil
	s.gen = nextGeneration(s.gen)
	t.free = append(t.free, h.slot)
	t.active--
	t.observe(t.active)
	return true
}

// snapshot appends the active slots subscribed to id, in index order, to dst.
func (t *table) snapshot(id EventID, dst []snapEntry) []snapEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range t.slots {
		s := &t.slots[i]
		if s.active && s.id == id {
			dst = append(dst, snapEntry{slot: uint32(i), gen: s.gen})
		}
	}
	return dst
}

// lookup returns the callback for a snapshot entry if the subscription it was
// taken from is still live.
func (t *table) lookup(e snapEntry) (Callback, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := &t.slots[e.slot]
	if !s.active || s.gen != e.gen {
		return nil, false
	}
	return s.fn, true
}

func (t *table) counts() (active, capacity int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active, len(t.slots)
}
