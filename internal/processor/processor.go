// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package processor moves readings from the data pipe through the shared
// queue to a pool of consumer workers.
//
// One feed goroutine decodes frames and pushes readings; Consumers worker
// goroutines pop and process them. When the feed ends the queue is
// closed, the workers drain what is buffered and exit.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"code.hybscloud.com/sensorq"
	"code.hybscloud.com/sensorq/internal/metrics"
	"code.hybscloud.com/sensorq/internal/wire"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config holds worker settings.
type Config struct {
	Consumers int           // Worker goroutines
	Delay     time.Duration // Simulated work per reading
	Gain      float64       // Processed value = Value * Gain
	LogEvery  int           // Log every n-th reading per worker; 0 disables
}

// DefaultConfig returns three workers with 100ms of work per reading.
func DefaultConfig() Config {
	return Config{Consumers: 3, Delay: 100 * time.Millisecond, Gain: 1.1, LogEvery: 5}
}

// Result is one processed reading.
type Result struct {
	Worker  int
	Reading sensorq.Reading
	Value   float64
}

// Processor owns the consumer side of a ReadingQueue.
type Processor struct {
	q   *sensorq.ReadingQueue
	cfg Config
	log *zap.Logger
	m   *metrics.Metrics

	// OnProcessed, if set, is called by each worker after a reading is
	// processed. It must be safe for concurrent use.
	OnProcessed func(Result)
}

// New returns a Processor draining q. Nil log and m discard.
func New(q *sensorq.ReadingQueue, cfg Config, log *zap.Logger, m *metrics.Metrics) *Processor {
	if cfg.Consumers <= 0 {
		cfg.Consumers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.Discard()
	}
	return &Processor{q: q, cfg: cfg, log: log, m: m}
}

// Queue returns the queue the processor drains.
func (p *Processor) Queue() *sensorq.ReadingQueue {
	return p.q
}

// Run starts the workers and feeds them from r until r is exhausted, ctx
// ends, or a read fails. It closes the queue, waits for the workers to
// drain it and returns the number of readings each worker processed.
func (p *Processor) Run(ctx context.Context, r io.Reader) ([]int64, error) {
	g, gctx := errgroup.WithContext(ctx)

	totals := make([]int64, p.cfg.Consumers)
	for i := range p.cfg.Consumers {
		g.Go(func() error {
			n, err := p.work(i + 1)
			totals[i] = n
			return err
		})
	}
	g.Go(func() error {
		defer p.q.Close()
		return p.Feed(gctx, r)
	})

	err := g.Wait()
	return totals, err
}

// Feed decodes readings from r and pushes them into the queue.
//
// Undecodable frames are counted and skipped. Feed returns nil when r
// reaches EOF or is closed, when ctx ends, or when the queue is closed.
// If r is an io.Closer it is closed once ctx ends so a blocked read
// returns.
func (p *Processor) Feed(ctx context.Context, r io.Reader) error {
	log := p.log.Named("producer")
	if c, ok := r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer stop()
	}

	dec := wire.NewDecoder(r)
	var pushed int64
	defer func() { log.Info("feed stopped", zap.Int64("pushed", pushed)) }()

	for {
		reading, err := dec.Next()
		if err != nil {
			switch {
			case wire.Recoverable(err):
				p.m.Malformed.Inc()
				log.Warn("skipping frame", zap.Error(err))
				continue
			case errors.Is(err, io.EOF), errors.Is(err, os.ErrClosed), ctx.Err() != nil:
				return nil
			default:
				return fmt.Errorf("feed: %w", err)
			}
		}

		if err := p.q.PushContext(ctx, &reading); err != nil {
			if sensorq.IsClosed(err) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("feed: %w", err)
		}
		pushed++
		p.m.Pushed.Inc()
		p.m.QueueDepth.Set(float64(p.q.Len()))
		log.Debug("reading queued",
			zap.Int("sensor", reading.SensorID),
			zap.Stringer("kind", reading.Kind),
			zap.Float64("value", reading.Value))
	}
}

// work pops readings until the queue is closed and drained.
func (p *Processor) work(id int) (int64, error) {
	log := p.log.Named("consumer").With(zap.Int("worker", id))
	log.Info("consumer started")

	var n int64
	for {
		r, err := p.q.Pop()
		if err != nil {
			if sensorq.IsClosed(err) {
				log.Info("consumer done", zap.Int64("processed", n))
				return n, nil
			}
			return n, fmt.Errorf("consumer %d: %w", id, err)
		}
		p.m.Popped.Inc()
		p.m.QueueDepth.Set(float64(p.q.Len()))

		res := Result{Worker: id, Reading: r, Value: r.Value * p.cfg.Gain}
		n++
		p.m.Processed.WithLabelValues(r.Kind.String()).Inc()
		if !r.Timestamp.IsZero() {
			p.m.ProcessLatency.Observe(time.Since(r.Timestamp).Seconds())
		}
		if p.cfg.LogEvery > 0 && n%int64(p.cfg.LogEvery) == 0 {
			log.Info("reading processed",
				zap.Int("sensor", r.SensorID),
				zap.Stringer("kind", r.Kind),
				zap.Float64("value", r.Value),
				zap.Float64("processed", res.Value),
				zap.Int64("count", n))
		}
		if p.OnProcessed != nil {
			p.OnProcessed(res)
		}
		if p.cfg.Delay > 0 {
			time.Sleep(p.cfg.Delay)
		}
	}
}
