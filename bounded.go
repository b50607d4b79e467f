// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sensorq

import (
	"context"
	"sync"

	"code.hybscloud.com/spin"
	"golang.org/x/sync/semaphore"
)

var _ Queue[int] = (*Bounded[int])(nil)

// Bounded is a fixed-capacity blocking FIFO queue.
//
// Two counting permit pools coordinate producers and consumers: empty
// counts free slots and filled counts occupied ones. A mutex guards the
// ring indices, the element count, the slot contents and the closed flag.
// The guard is held only for the constant-time slot copy and index update,
// never while waiting for a permit.
//
// At every instant empty + filled + permits held by in-flight operations
// equals Cap().
//
// Safe for any number of concurrent producers and consumers. Content order
// is FIFO; which consumer receives which element is unspecified.
//
// A Bounded must be created with New or MustNew.
//
// Memory: capacity slots of T
type Bounded[T any] struct {
	empty  *semaphore.Weighted // Free slots
	filled *semaphore.Weighted // Occupied slots

	mu     sync.Mutex
	buffer []T
	head   int // Next slot to pop
	tail   int // Next slot to push
	count  int
	closed bool

	// done is canceled by Close. Every permit wait observes it, so one
	// cancellation wakes all suspended callers.
	done   context.Context
	cancel context.CancelFunc
}

// New creates a queue holding at most capacity elements.
// Returns ErrInvalidCapacity if capacity <= 0.
//
// Capacity is used exactly as given; it is not rounded to a power of two.
func New[T any](capacity int) (*Bounded[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	n := int64(capacity)
	filled := semaphore.NewWeighted(n)
	// The filled pool starts empty: the queue holds every permit and hands
	// one back per completed push.
	filled.TryAcquire(n)

	done, cancel := context.WithCancel(context.Background())
	return &Bounded[T]{
		empty:  semaphore.NewWeighted(n),
		filled: filled,
		buffer: make([]T, capacity),
		done:   done,
		cancel: cancel,
	}, nil
}

// MustNew is like New but panics if capacity <= 0.
func MustNew[T any](capacity int) *Bounded[T] {
	q, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return q
}

// Push adds an element to the tail, blocking while the queue is full.
// Returns ErrClosed if the queue is closed before the element is stored.
func (q *Bounded[T]) Push(elem *T) error {
	return q.PushContext(context.Background(), elem)
}

// PushContext is Push bounded by ctx.
// Returns ctx.Err() if ctx ends before a slot frees up.
func (q *Bounded[T]) PushContext(ctx context.Context, elem *T) error {
	if err := q.acquire(ctx, q.empty); err != nil {
		return err
	}
	return q.put(elem)
}

// TryPush adds an element without blocking.
// Returns ErrWouldBlock if the queue is full, ErrClosed if it is closed.
func (q *Bounded[T]) TryPush(elem *T) error {
	if !q.empty.TryAcquire(1) {
		if q.Closed() {
			return ErrClosed
		}
		return ErrWouldBlock
	}
	return q.put(elem)
}

// Pop removes and returns the head element, blocking while the queue is
// empty. After Close, buffered elements are still returned; once the
// queue is closed and empty, Pop returns (zero-value, ErrClosed).
func (q *Bounded[T]) Pop() (T, error) {
	return q.PopContext(context.Background())
}

// PopContext is Pop bounded by ctx.
// Returns (zero-value, ctx.Err()) if ctx ends before an element arrives.
func (q *Bounded[T]) PopContext(ctx context.Context) (T, error) {
	if err := q.acquire(ctx, q.filled); err != nil {
		if !IsClosed(err) || !q.drainPermit() {
			var zero T
			return zero, err
		}
	}
	return q.take(), nil
}

// TryPop removes and returns the head element without blocking.
// Returns (zero-value, ErrWouldBlock) if the queue is open and empty,
// (zero-value, ErrClosed) if it is closed and empty.
func (q *Bounded[T]) TryPop() (T, error) {
	if q.filled.TryAcquire(1) {
		return q.take(), nil
	}
	var zero T
	if !q.Closed() {
		return zero, ErrWouldBlock
	}
	if q.drainPermit() {
		return q.take(), nil
	}
	return zero, ErrClosed
}

// Close marks the queue closed and wakes every suspended Push and Pop.
//
// Close is idempotent and irreversible. Blocked and future Push calls
// return ErrClosed; Pop drains what is buffered and then returns ErrClosed.
func (q *Bounded[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cancel()
}

// Closed reports whether Close has been called.
func (q *Bounded[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of buffered elements.
// The value is exact at the moment of the call and may be stale on return.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *Bounded[T]) Cap() int {
	return len(q.buffer)
}

// acquire takes one permit from s. It waits until a permit is available,
// ctx ends, or the queue is closed, and holds no permit on error.
func (q *Bounded[T]) acquire(ctx context.Context, s *semaphore.Weighted) error {
	if s.TryAcquire(1) {
		return nil
	}

	wait := q.done
	if ctx.Done() != nil {
		var cancel context.CancelFunc
		wait, cancel = context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(q.done, cancel)
		defer stop()
	}

	if err := s.Acquire(wait, 1); err != nil {
		if q.done.Err() != nil {
			return ErrClosed
		}
		return ctx.Err()
	}
	return nil
}

// put stores elem at the tail. The caller holds one empty permit, which is
// returned to the pool if the queue closed in the meantime.
func (q *Bounded[T]) put(elem *T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.empty.Release(1)
		return ErrClosed
	}
	q.buffer[q.tail] = *elem
	q.tail++
	if q.tail == len(q.buffer) {
		q.tail = 0
	}
	q.count++
	q.mu.Unlock()

	q.filled.Release(1)
	return nil
}

// take removes the head element. The caller holds one filled permit.
func (q *Bounded[T]) take() T {
	var zero T
	q.mu.Lock()
	elem := q.buffer[q.head]
	q.buffer[q.head] = zero
	q.head++
	if q.head == len(q.buffer) {
		q.head = 0
	}
	q.count--
	q.mu.Unlock()

	q.empty.Release(1)
	return elem
}

// drainPermit takes a filled permit on a closed queue. It reports false
// once the queue is empty.
//
// A push that completed its write before Close may not have released its
// filled permit yet, and a competing consumer may hold a permit for an
// element it has not taken yet. Both windows are a few instructions wide.
func (q *Bounded[T]) drainPermit() bool {
	sw := spin.Wait{}
	for {
		if q.filled.TryAcquire(1) {
			return true
		}
		if q.Len() == 0 {
			return false
		}
		sw.Once()
	}
}
