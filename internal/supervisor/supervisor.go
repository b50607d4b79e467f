// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

// Package supervisor wires the pipeline roles together and owns shutdown.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"code.hybscloud.com/sensorq"
	"code.hybscloud.com/sensorq/internal/config"
	"code.hybscloud.com/sensorq/internal/control"
	"code.hybscloud.com/sensorq/internal/fifo"
	"code.hybscloud.com/sensorq/internal/metrics"
	"code.hybscloud.com/sensorq/internal/notice"
	"code.hybscloud.com/sensorq/internal/processor"
	"code.hybscloud.com/sensorq/internal/sensor"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// drainTimeout bounds how long shutdown waits for the data pipe to empty.
const drainTimeout = 2 * time.Second

// Run starts every role and blocks until ctx ends, cfg.RunFor elapses, a
// shutdown command arrives, or a role fails.
//
// Shutdown order: sensors stop, the feed drains the data pipe and stops,
// the queue closes, and the workers finish what is buffered. Both pipes
// are removed on return. A nil reg uses a private registry.
func Run(ctx context.Context, cfg *config.Config, base *zap.Logger, reg *prometheus.Registry) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if base == nil {
		base = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	log := base.Named("supervisor")

	for _, path := range []string{cfg.FIFO.DataPath, cfg.FIFO.ControlPath} {
		if err := fifo.Make(path); err != nil {
			return err
		}
		defer func() {
			if rmErr := fifo.Remove(path); rmErr != nil {
				log.Warn("cleanup failed", zap.Error(rmErr))
			}
		}()
	}

	dataR, err := fifo.OpenReader(cfg.FIFO.DataPath)
	if err != nil {
		return err
	}
	defer dataR.Close()
	ctrlR, err := fifo.OpenReader(cfg.FIFO.ControlPath)
	if err != nil {
		return err
	}
	defer ctrlR.Close()
	retry := fifo.Retry{Attempts: cfg.FIFO.OpenRetries, Interval: cfg.FIFO.OpenInterval}
	dataW, err := fifo.OpenWriter(ctx, cfg.FIFO.DataPath, retry)
	if err != nil {
		return err
	}
	defer dataW.Close()

	q, err := sensorq.NewReadingQueue(cfg.Queue.Capacity)
	if err != nil {
		return err
	}
	m := metrics.New(reg)
	ring := notice.NewRing(cfg.Notice.Capacity)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	if cfg.RunFor > 0 {
		runCtx, stop = context.WithTimeout(runCtx, cfg.RunFor)
		defer stop()
	}

	// The feed outlives runCtx so it can drain the pipe after the
	// sensors stop.
	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()

	proc := processor.New(q, processor.Config{
		Consumers: cfg.Processor.Consumers,
		Delay:     cfg.Processor.Delay,
		Gain:      cfg.Processor.Gain,
		LogEvery:  cfg.Processor.LogEvery,
	}, base, m)

	g, gctx := errgroup.WithContext(runCtx)

	fleet := sensor.NewFleet(gctx, dataW, sensor.Config{
		Interval:  cfg.Sensor.Interval,
		Variation: cfg.Sensor.Variation,
		LogEvery:  cfg.Sensor.LogEvery,
	}, sensor.Deps{Notices: ring, Log: base, Metrics: m})

	g.Go(func() error {
		totals, err := proc.Run(feedCtx, dataR)
		log.Info("processor stopped", zap.Int64s("per_worker", totals))
		return err
	})
	g.Go(func() error {
		return control.NewInterface(fleet, stop, base, m).Run(gctx, ctrlR)
	})
	g.Go(func() error {
		return control.NewMonitor(ring, base.Named("control"), m).Run(gctx)
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			if err := metrics.Serve(gctx, cfg.Metrics.Addr, reg); err != nil {
				return fmt.Errorf("metrics: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		fleet.StopAll()
		fleetErr := fleet.Wait()
		drain(dataR, log)
		stopFeed()
		return fleetErr
	})

	if err := fleet.StartAll(sensor.DefaultSensors); err != nil {
		stop()
		return errors.Join(err, g.Wait())
	}
	log.Info("pipeline started",
		zap.Int("capacity", q.Cap()),
		zap.Int("consumers", cfg.Processor.Consumers),
		zap.Int("sensors", len(sensor.DefaultSensors)),
		zap.String("data_fifo", cfg.FIFO.DataPath),
		zap.String("control_fifo", cfg.FIFO.ControlPath))

	err = g.Wait()
	if err != nil {
		log.Error("pipeline stopped", zap.Error(err))
	} else {
		log.Info("pipeline stopped")
	}
	return err
}

// drain waits until the feed has read everything buffered in the pipe.
// The pipe must read empty twice in a row so the feed can finish
// decoding what it already pulled into its buffer.
func drain(f *os.File, log *zap.Logger) {
	deadline := time.Now().Add(drainTimeout)
	empty := 0
	for time.Now().Before(deadline) {
		n, err := fifo.Pending(f)
		if err != nil {
			return
		}
		if n == 0 {
			empty++
			if empty == 2 {
				return
			}
		} else {
			empty = 0
		}
		time.Sleep(10 * time.Millisecond)
	}
	log.Warn("data pipe not drained before shutdown")
}
