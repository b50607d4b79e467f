// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package notice

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Ring is a CAS-based multi-producer single-consumer bounded ring of
// notices.
//
// Producers claim a slot by advancing tail with CAS, then publish it by
// storing the slot sequence. The single consumer reads slots in order.
//
// Memory: n slots, n = capacity rounded up to a power of 2
type Ring struct {
	_        pad
	head     atomix.Uint64 // Consumer reads from here
	_        pad
	tail     atomix.Uint64 // Producers CAS here
	_        pad
	dropped  atomix.Int64
	_        pad
	slots    []slot
	mask     uint64
	capacity uint64
}

type slot struct {
	seq atomix.Uint64
	n   Notice
}

// NewRing creates a notice ring.
// Capacity rounds up to the next power of 2, minimum 2.
func NewRing(capacity int) *Ring {
	n := uint64(roundToPow2(capacity))
	r := &Ring{
		slots:    make([]slot, n),
		mask:     n - 1,
		capacity: n,
	}
	for i := uint64(0); i < n; i++ {
		r.slots[i].seq.StoreRelaxed(i)
	}
	return r
}

// Enqueue publishes a notice (multiple producers safe).
// Returns ErrWouldBlock if the ring is full; the rejection is counted.
func (r *Ring) Enqueue(n *Notice) error {
	sw := spin.Wait{}
	for {
		tail := r.tail.LoadAcquire()
		head := r.head.LoadAcquire()

		if tail >= head+r.capacity {
			r.dropped.Add(1)
			return ErrWouldBlock
		}

		s := &r.slots[tail&r.mask]
		seq := s.seq.LoadAcquire()

		if seq == tail {
			if r.tail.CompareAndSwapAcqRel(tail, tail+1) {
				s.n = *n
				s.seq.StoreRelease(tail + 1)
				return nil
			}
		} else if seq < tail {
			// Slot still held by the consumer from the previous lap.
			r.dropped.Add(1)
			return ErrWouldBlock
		}
		sw.Once()
	}
}

// Dequeue removes the oldest notice (single consumer only).
// Returns (Notice{}, ErrWouldBlock) if the ring is empty.
func (r *Ring) Dequeue() (Notice, error) {
	head := r.head.LoadRelaxed()
	s := &r.slots[head&r.mask]
	if s.seq.LoadAcquire() != head+1 {
		return Notice{}, ErrWouldBlock
	}

	n := s.n
	s.n = Notice{}
	s.seq.StoreRelease(head + r.capacity)
	r.head.StoreRelease(head + 1)
	return n, nil
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return int(r.capacity)
}

// Dropped returns the number of notices rejected because the ring was full.
func (r *Ring) Dropped() int64 {
	return r.dropped.Load()
}

// pad fills a cache line to keep hot indices apart.
type pad [64]byte

func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
