// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sensorq

import (
	"errors"

	"code.hybscloud.com/iox"
)

var (
	// ErrInvalidCapacity is returned by New when capacity is not positive.
	// It is a construction-time failure; the caller must not proceed.
	ErrInvalidCapacity = errors.New("sensorq: capacity must be > 0")

	// ErrClosed is returned by Push after Close, and by Pop once the queue
	// is both closed and empty.
	//
	// ErrClosed is a normal termination signal. Producer and consumer loops
	// should stop and return nil rather than report it as a failure.
	ErrClosed = errors.New("sensorq: queue closed")
)

// ErrWouldBlock indicates a non-blocking operation cannot proceed immediately.
//
// For TryPush: the queue is full (backpressure)
// For TryPop: the queue is empty (no data available)
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// IsClosed reports whether err is, or wraps, ErrClosed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrMore.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
