// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sensorq

import "context"

// Queue is the combined producer-consumer interface for a blocking FIFO queue.
//
// Push and Pop suspend the caller until a slot or an item is available.
// Close releases every suspended caller; after Close, Push fails with
// ErrClosed and Pop keeps delivering buffered items until the queue is
// empty, then fails with ErrClosed.
//
// Example:
//
//	q := sensorq.MustNew[int](64)
//
//	// Producer
//	v := 42
//	if err := q.Push(&v); err != nil {
//	    // Queue closed
//	}
//
//	// Consumer
//	for {
//	    v, err := q.Pop()
//	    if err != nil {
//	        break // ErrClosed: drained and closed
//	    }
//	    fmt.Println(v)
//	}
type Queue[T any] interface {
	Producer[T]
	Consumer[T]
	Close()
	Len() int
	Cap() int
}

// Producer is the interface for pushing elements.
//
// The element is passed by pointer to avoid copying large structs at the
// call site. The queue stores a copy of the pointed-to value, so the
// original can be modified after Push returns.
type Producer[T any] interface {
	// Push adds an element, blocking while the queue is full.
	// Returns nil on success, ErrClosed if the queue has been closed.
	Push(elem *T) error

	// PushContext is Push bounded by ctx.
	// Returns ctx.Err() if ctx ends first; no slot is consumed in that case.
	PushContext(ctx context.Context, elem *T) error

	// TryPush adds an element without blocking.
	// Returns ErrWouldBlock if the queue is full.
	TryPush(elem *T) error
}

// Consumer is the interface for popping elements.
//
// Elements are returned by value (copied out of the queue's ring). The
// vacated slot is cleared to allow garbage collection of referenced objects.
type Consumer[T any] interface {
	// Pop removes and returns the oldest element, blocking while the queue
	// is empty. Returns (zero-value, ErrClosed) once closed and drained.
	Pop() (T, error)

	// PopContext is Pop bounded by ctx.
	PopContext(ctx context.Context) (T, error)

	// TryPop removes and returns the oldest element without blocking.
	// Returns (zero-value, ErrWouldBlock) if the queue is empty and open.
	TryPop() (T, error)
}

// ReadingQueue is the pipeline buffer between the feed and the workers.
type ReadingQueue = Bounded[Reading]

// NewReadingQueue creates a ReadingQueue holding at most capacity readings.
func NewReadingQueue(capacity int) (*ReadingQueue, error) {
	return New[Reading](capacity)
}
