// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sensorq_test

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/sensorq"
)

// =============================================================================
// Stress Tests
// =============================================================================

// TestStressSingleProducer pushes 10,000 readings with increasing sensor
// IDs into a small queue drained by 3 consumers until Close. Every ID must
// be delivered exactly once, and each consumer must see its IDs in
// increasing order.
func TestStressSingleProducer(t *testing.T) {
	const (
		total     = 10000
		consumers = 3
		capacity  = 16
		timeout   = 20 * time.Second
	)

	q, err := sensorq.NewReadingQueue(capacity)
	if err != nil {
		t.Fatalf("NewReadingQueue: %v", err)
	}
	seen := make([]atomix.Int32, total)
	var popped atomix.Int64
	perConsumer := make([]int, consumers)

	var wg sync.WaitGroup
	for c := range consumers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			last := -1
			for {
				r, err := q.Pop()
				if err != nil {
					if !sensorq.IsClosed(err) {
						t.Errorf("consumer %d: %v", id, err)
					}
					return
				}
				if r.SensorID <= last {
					t.Errorf("consumer %d: sensor %d after %d", id, r.SensorID, last)
				}
				last = r.SensorID
				if r.SensorID >= 0 && r.SensorID < total {
					seen[r.SensorID].Add(1)
				}
				perConsumer[id]++
				popped.Add(1)
			}
		}(c)
	}

	start := time.Now()
	for i := range total {
		r := sensorq.Reading{Kind: sensorq.Kind(i % 3), SensorID: i, Value: float64(i), Timestamp: start}
		if err := q.Push(&r); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	q.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("timeout: popped %d/%d", popped.Load(), total)
	}

	if got := popped.Load(); got != total {
		t.Fatalf("popped %d, want %d", got, total)
	}
	var gaps, duplicates int
	for i := range total {
		switch seen[i].Load() {
		case 0:
			gaps++
		case 1:
		default:
			duplicates++
		}
	}
	if gaps > 0 || duplicates > 0 {
		t.Fatalf("gaps=%d duplicates=%d", gaps, duplicates)
	}
	sum := 0
	for _, n := range perConsumer {
		sum += n
	}
	if sum != total {
		t.Fatalf("per-consumer sum %d, want %d", sum, total)
	}
}

// TestStressMultiProducer runs several producers and consumers against a
// capacity-1 queue, the tightest permit handoff.
func TestStressMultiProducer(t *testing.T) {
	const (
		producers   = 4
		consumers   = 4
		perProducer = 2500
		total       = producers * perProducer
	)

	q := sensorq.MustNew[int](1)
	seen := make([]atomix.Int32, total)

	var prodWg, consWg sync.WaitGroup
	for p := range producers {
		prodWg.Add(1)
		go func(id int) {
			defer prodWg.Done()
			for i := range perProducer {
				v := id*perProducer + i
				if err := q.Push(&v); err != nil {
					t.Errorf("producer %d: %v", id, err)
					return
				}
			}
		}(p)
	}
	for range consumers {
		consWg.Add(1)
		go func() {
			defer consWg.Done()
			for {
				v, err := q.Pop()
				if err != nil {
					return
				}
				seen[v].Add(1)
			}
		}()
	}

	prodWg.Wait()
	q.Close()
	consWg.Wait()

	for i := range total {
		if c := seen[i].Load(); c != 1 {
			t.Fatalf("item %d: seen %d times, want 1", i, c)
		}
	}
}

// TestStressCloseUnderLoad closes the queue while producers are blocked.
// Whatever was accepted must be delivered exactly once.
func TestStressCloseUnderLoad(t *testing.T) {
	const (
		producers   = 4
		perProducer = 5000
		total       = producers * perProducer
	)

	q := sensorq.MustNew[int](8)
	seen := make([]atomix.Int32, total)
	var accepted, popped atomix.Int64

	var prodWg, consWg sync.WaitGroup
	for p := range producers {
		prodWg.Add(1)
		go func(id int) {
			defer prodWg.Done()
			for i := range perProducer {
				v := id*perProducer + i
				if err := q.Push(&v); err != nil {
					return
				}
				accepted.Add(1)
			}
		}(p)
	}
	consWg.Add(1)
	go func() {
		defer consWg.Done()
		for {
			v, err := q.Pop()
			if err != nil {
				return
			}
			seen[v].Add(1)
			popped.Add(1)
			if popped.Load() == total/4 {
				q.Close()
			}
		}
	}()

	prodWg.Wait()
	consWg.Wait()

	if accepted.Load() != popped.Load() {
		t.Fatalf("accepted %d, popped %d", accepted.Load(), popped.Load())
	}
	for i := range total {
		if c := seen[i].Load(); c > 1 {
			t.Fatalf("item %d: seen %d times", i, c)
		}
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkPushPop(b *testing.B) {
	q := sensorq.MustNew[int](1024)
	b.ReportAllocs()
	for i := range b.N {
		q.Push(&i)
		q.Pop()
	}
}

func BenchmarkProducerConsumers(b *testing.B) {
	q, _ := sensorq.NewReadingQueue(100)
	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, err := q.Pop(); err != nil {
					return
				}
			}
		}()
	}

	r := sensorq.Reading{Kind: sensorq.Temperature, SensorID: 1, Value: 25}
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		q.Push(&r)
	}
	q.Close()
	wg.Wait()
}
