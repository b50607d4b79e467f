// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package control

import (
	"context"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/sensorq/internal/metrics"
	"code.hybscloud.com/sensorq/internal/notice"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Monitor drains the notice ring and announces fresh data.
//
// A reader goroutine consumes notices and raises a one-slot ready flag; an
// announcer goroutine waits on the flag. Bursts of notices collapse into
// a single announcement.
type Monitor struct {
	ring  *notice.Ring
	log   *zap.Logger
	m     *metrics.Metrics
	ready chan struct{}

	received  atomix.Int64
	announced atomix.Int64

	// OnNotice, if set, is called from the reader goroutine for every
	// notice.
	OnNotice func(notice.Notice)
}

// NewMonitor returns a Monitor reading ring. Nil log and m discard.
func NewMonitor(ring *notice.Ring, log *zap.Logger, m *metrics.Metrics) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.Discard()
	}
	return &Monitor{
		ring:  ring,
		log:   log,
		m:     m,
		ready: make(chan struct{}, 1),
	}
}

// Received returns the number of notices consumed.
func (mo *Monitor) Received() int64 { return mo.received.Load() }

// Announced returns the number of data-ready announcements.
func (mo *Monitor) Announced() int64 { return mo.announced.Load() }

// Run reads notices until ctx ends.
func (mo *Monitor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mo.read(gctx) })
	g.Go(func() error { return mo.announce(gctx) })
	return g.Wait()
}

func (mo *Monitor) read(ctx context.Context) error {
	log := mo.log.Named("notices")
	log.Info("notice reader started")

	backoff := iox.Backoff{}
	for ctx.Err() == nil {
		n, err := mo.ring.Dequeue()
		if err != nil {
			backoff.Wait()
			continue
		}
		backoff.Reset()

		mo.received.Add(1)
		mo.m.NoticesRead.Inc()
		log.Debug("notice received", zap.Stringer("notice", n))
		if mo.OnNotice != nil {
			mo.OnNotice(n)
		}

		select {
		case mo.ready <- struct{}{}:
		default:
		}
	}
	return nil
}

func (mo *Monitor) announce(ctx context.Context) error {
	log := mo.log.Named("data")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-mo.ready:
			mo.announced.Add(1)
			log.Debug("new data available", zap.Int64("received", mo.received.Load()))
		}
	}
}
