// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

// Package fifo creates and opens the named pipes that connect sensor
// processes, the processor and the control interface.
package fifo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Mode is the permission used for new pipes.
const Mode = 0o666

// ErrNotFIFO is returned when a path exists but is not a named pipe.
var ErrNotFIFO = errors.New("fifo: not a named pipe")

// Retry bounds how long OpenWriter waits for a reader to appear.
type Retry struct {
	Attempts int
	Interval time.Duration
}

// DefaultRetry waits up to ten seconds.
var DefaultRetry = Retry{Attempts: 20, Interval: 500 * time.Millisecond}

// Make creates a named pipe at path. An existing pipe is reused.
func Make(path string) error {
	err := unix.Mkfifo(path, Mode)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("fifo: mkfifo %s: %w", path, err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("fifo: stat %s: %w", path, err)
	}
	if fi.Mode()&fs.ModeNamedPipe == 0 {
		return fmt.Errorf("%w: %s", ErrNotFIFO, path)
	}
	return nil
}

// OpenReader opens the read end of the pipe at path.
//
// The pipe is opened read-write, which never blocks and keeps a writer
// reference alive: Read waits for data instead of returning io.EOF when
// the last external writer goes away. The returned file is pollable, so
// Close unblocks a pending Read.
func OpenReader(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("fifo: open reader %s: %w", path, err)
	}
	return f, nil
}

// OpenWriter opens the write end of the pipe at path.
//
// The open is non-blocking and fails while the pipe has no reader or does
// not exist yet; OpenWriter retries those failures per r until ctx ends.
func OpenWriter(ctx context.Context, path string, r Retry) (*os.File, error) {
	if r.Attempts <= 0 {
		r.Attempts = 1
	}

	var lastErr error
	for attempt := range r.Attempts {
		if attempt > 0 {
			timer := time.NewTimer(r.Interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err == nil {
			return os.NewFile(uintptr(fd), path), nil
		}
		if !retryable(err) {
			return nil, fmt.Errorf("fifo: open writer %s: %w", path, err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fifo: open writer %s: %d attempts: %w", path, r.Attempts, lastErr)
}

// Remove deletes the pipe at path. A missing path is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("fifo: remove %s: %w", path, err)
	}
	return nil
}

// retryable reports whether an open failure may clear up on its own:
// ENXIO means no reader yet, ENOENT means the pipe is not created yet.
func retryable(err error) bool {
	return errors.Is(err, unix.ENXIO) || errors.Is(err, unix.ENOENT)
}
