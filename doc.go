// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sensorq provides the blocking bounded queue at the center of the
// sensor monitoring pipeline.
//
// A single feed goroutine decodes readings from the sensor pipe and pushes
// them; several worker goroutines pop and process them. The queue is the
// only synchronization point between the two sides: a feed that outpaces
// the workers blocks in Push instead of growing memory or dropping data.
//
// # Quick Start
//
//	q, err := sensorq.NewReadingQueue(100)
//	if err != nil {
//	    return err // ErrInvalidCapacity
//	}
//
//	// Producer
//	r := sensorq.Reading{Kind: sensorq.Temperature, SensorID: 1, Value: 25.3}
//	if err := q.Push(&r); err != nil {
//	    // ErrClosed
//	}
//
//	// Consumers
//	for range 3 {
//	    go func() {
//	        for {
//	            r, err := q.Pop()
//	            if err != nil {
//	                return // ErrClosed: closed and drained
//	            }
//	            process(r)
//	        }
//	    }()
//	}
//
//	// Shutdown: stop the producer first, then
//	q.Close()
//
// # Algorithm
//
// The queue is the classic two-semaphore ring buffer:
//
//	Push: acquire empty → lock → write tail, tail++, count++ → unlock → release filled
//	Pop:  acquire filled → lock → read head, head++, count-- → unlock → release empty
//
// Permits come from [golang.org/x/sync/semaphore]. Because every waiter
// waits on a context derived from the queue's close context, Close wakes
// all of them with a single cancellation. After waking, Push re-checks the
// closed flag under the lock and Pop drains remaining elements before
// reporting ErrClosed.
//
// # Ordering
//
// Elements leave the ring in the order they entered it. When several
// consumers wait at once, which consumer receives the next element is
// unspecified. Only content order is guaranteed.
//
// # Cancellation
//
// Close is the queue-wide cancellation. PushContext and PopContext add a
// per-call bound; a call canceled through its context returns ctx.Err()
// and holds no permit. TryPush and TryPop never block and return
// [ErrWouldBlock] instead.
//
// # Error Handling
//
//	sensorq.ErrInvalidCapacity  // New with capacity <= 0
//	sensorq.ErrClosed           // Push after Close; Pop after Close once drained
//	sensorq.ErrWouldBlock       // TryPush on full; TryPop on empty (alias of iox.ErrWouldBlock)
//
// ErrClosed and ErrWouldBlock are control flow signals. A producer or
// consumer loop that sees ErrClosed should return normally.
//
// Internal permit accounting errors are not returned: the semaphore panics
// on over-release, which signals a corrupted queue.
//
// # Dependencies
//
// This package uses [golang.org/x/sync/semaphore] for the permit pools,
// [code.hybscloud.com/iox] for semantic errors, and [code.hybscloud.com/spin]
// for the short drain window after Close.
package sensorq
