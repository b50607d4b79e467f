// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package notice_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/sensorq"
	"code.hybscloud.com/sensorq/internal/notice"
)

// =============================================================================
// Ring - Basic Operations
// =============================================================================

func TestRingBasic(t *testing.T) {
	r := notice.NewRing(3)

	if r.Cap() != 4 {
		t.Fatalf("Cap: got %d, want 4", r.Cap())
	}

	for i := range 4 {
		n := notice.Notice{SensorID: i + 1, Kind: sensorq.Humidity, Value: float64(i)}
		if err := r.Enqueue(&n); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}

	extra := notice.Notice{SensorID: 99}
	if err := r.Enqueue(&extra); !errors.Is(err, notice.ErrWouldBlock) {
		t.Fatalf("Enqueue on full: got %v, want ErrWouldBlock", err)
	}
	if r.Dropped() != 1 {
		t.Fatalf("Dropped: got %d, want 1", r.Dropped())
	}

	for i := range 4 {
		n, err := r.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if n.SensorID != i+1 {
			t.Fatalf("Dequeue(%d): got sensor %d, want %d", i, n.SensorID, i+1)
		}
	}

	if _, err := r.Dequeue(); !iox.IsWouldBlock(err) {
		t.Fatalf("Dequeue on empty: got %v, want ErrWouldBlock", err)
	}
}

func TestRingMinimumCapacity(t *testing.T) {
	for _, c := range []int{-1, 0, 1, 2} {
		if got := notice.NewRing(c).Cap(); got != 2 {
			t.Fatalf("NewRing(%d).Cap: got %d, want 2", c, got)
		}
	}
	if got := notice.NewRing(9).Cap(); got != 16 {
		t.Fatalf("NewRing(9).Cap: got %d, want 16", got)
	}
}

// TestRingWrapAround cycles through the ring several laps.
func TestRingWrapAround(t *testing.T) {
	r := notice.NewRing(4)
	for i := range 50 {
		n := notice.Notice{SensorID: i}
		if err := r.Enqueue(&n); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
		got, err := r.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if got.SensorID != i {
			t.Fatalf("Dequeue(%d): got %d", i, got.SensorID)
		}
	}
}

func TestNoticeString(t *testing.T) {
	n := notice.Notice{SensorID: 3, Value: 61.234}
	if got, want := n.String(), "SENSOR-3:61.23"; got != want {
		t.Fatalf("String: got %q, want %q", got, want)
	}
}

// =============================================================================
// Ring - Concurrent Producers
// =============================================================================

// TestRingConcurrentProducers publishes from many producers and verifies
// every notice arrives exactly once with per-producer order preserved.
func TestRingConcurrentProducers(t *testing.T) {
	if notice.RaceEnabled {
		t.Skip("skip: CAS-based algorithm uses cross-variable memory ordering")
	}

	const (
		producers     = 4
		perProducer   = 5000
		timeout       = 10 * time.Second
		expectedTotal = producers * perProducer
	)

	r := notice.NewRing(64)
	seen := make([]atomix.Int32, expectedTotal)
	var timedOut atomix.Bool
	deadline := time.Now().Add(timeout)

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			backoff := iox.Backoff{}
			for i := range perProducer {
				n := notice.Notice{SensorID: id, Value: float64(i)}
				for r.Enqueue(&n) != nil {
					if time.Now().After(deadline) {
						timedOut.Store(true)
						return
					}
					backoff.Wait()
				}
				backoff.Reset()
			}
		}(p)
	}

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	backoff := iox.Backoff{}
	for got := 0; got < expectedTotal; {
		if timedOut.Load() || time.Now().After(deadline) {
			t.Fatalf("timeout: received %d/%d", got, expectedTotal)
		}
		n, err := r.Dequeue()
		if err != nil {
			backoff.Wait()
			continue
		}
		backoff.Reset()
		seq := int(n.Value)
		if seq <= last[n.SensorID] {
			t.Fatalf("producer %d: got %d after %d", n.SensorID, seq, last[n.SensorID])
		}
		last[n.SensorID] = seq
		seen[n.SensorID*perProducer+seq].Add(1)
		got++
	}
	wg.Wait()

	for i := range expectedTotal {
		if c := seen[i].Load(); c != 1 {
			t.Fatalf("notice %d: seen %d times, want 1", i, c)
		}
	}
}
