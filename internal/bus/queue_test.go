// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueue_FIFOAcrossWrap(t *testing.T) {
	q := newQueue(3, 4)
	dst := newEvent(4)

	for round := 0; round < 3; round++ {
		for i := 0; i < 3; i++ {
			res, depth := q.push(EventID(i), []byte{byte(round), byte(i)})
			require.Equal(t, pushOK, res)
			require.Equal(t, i+1, depth)
		}
		for i := 0; i < 3; i++ {
			depth, ok := q.pop(&dst)
			require.True(t, ok)
			require.Equal(t, 2-i, depth)
			require.Equal(t, EventID(i), dst.ID)
			require.Equal(t, []byte{byte(round), byte(i)}, dst.Payload())
		}
		_, ok := q.pop(&dst)
		require.False(t, ok)
	}
}

func TestQueue_DropNewWhenFull(t *testing.T) {
	q := newQueue(2, 4)
	res, _ := q.push(1, []byte("a"))
	require.Equal(t, pushOK, res)
	res, _ = q.push(2, []byte("b"))
	require.Equal(t, pushOK, res)

	res, depth := q.push(3, []byte("c"))
	require.Equal(t, pushFull, res)
	require.Equal(t, 2, depth)

	dst := newEvent(4)
	_, ok := q.pop(&dst)
	require.True(t, ok)
	require.Equal(t, EventID(1), dst.ID, "oldest event must survive overflow")
}

func TestQueue_RejectsOversizedPayload(t *testing.T) {
	q := newQueue(2, 4)
	res, _ := q.push(1, []byte("12345"))
	require.Equal(t, pushTooLarge, res)
	require.Zero(t, q.len())

	res, _ = q.push(1, []byte("1234"))
	require.Equal(t, pushOK, res)
}

func TestQueue_CopiesPayload(t *testing.T) {
	q := newQueue(1, 4)
	src := []byte{1, 2, 3}
	res, _ := q.push(1, src)
	require.Equal(t, pushOK, res)
	src[0] = 0xEE

	dst := newEvent(4)
	_, ok := q.pop(&dst)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, dst.Payload())
}

func TestQueue_EmptyPayload(t *testing.T) {
	q := newQueue(1, 4)
	res, _ := q.push(1, nil)
	require.Equal(t, pushOK, res)

	dst := newEvent(4)
	_, ok := q.pop(&dst)
	require.True(t, ok)
	require.Zero(t, dst.Len())
	require.Empty(t, dst.Payload())
}

func TestQueue_CloseKeepsQueuedRecords(t *testing.T) {
	q := newQueue(2, 4)
	res, _ := q.push(1, nil)
	require.Equal(t, pushOK, res)
	q.close()

	res, _ = q.push(2, nil)
	require.Equal(t, pushClosed, res)

	dst := newEvent(4)
	_, ok := q.pop(&dst)
	require.True(t, ok)
	require.Equal(t, EventID(1), dst.ID)
}

func TestQueue_ObserveSeesEveryDepthInOrder(t *testing.T) {
	q := newQueue(8, 4)
	var seen []int
	q.observe = func(depth int) { seen = append(seen, depth) } // called under q.mu

	const producers, perProducer = 4, 200
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.push(1, []byte{byte(i)})
			}
		}()
	}

	stop := make(chan struct{})
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		var dst Event
		for {
			if _, ok := q.pop(&dst); ok {
				continue
			}
			select {
			case <-stop:
				for {
					if _, ok := q.pop(&dst); !ok {
						return
					}
				}
			default:
				runtime.Gosched()
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-consumed

	require.NotEmpty(t, seen)
	prev := 0
	for i, d := range seen {
		require.Contains(t, []int{prev - 1, prev + 1}, d, "report %d jumped from %d", i, prev)
		prev = d
	}
	require.Zero(t, seen[len(seen)-1])
	require.Zero(t, q.len())
}
