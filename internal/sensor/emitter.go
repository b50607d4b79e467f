// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sensor

import (
	"context"
	"fmt"
	"io"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/sensorq"
	"code.hybscloud.com/sensorq/internal/metrics"
	"code.hybscloud.com/sensorq/internal/notice"
	"code.hybscloud.com/sensorq/internal/wire"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds emitter settings.
type Config struct {
	Interval  time.Duration // Time between readings
	Variation float64       // Half-width of the value range around the base
	LogEvery  int           // Log every n-th reading; 0 disables
}

// DefaultConfig emits one reading per second.
func DefaultConfig() Config {
	return Config{Interval: time.Second, Variation: 2.5, LogEvery: 10}
}

// Deps are the shared collaborators of every emitter.
// Nil Notices disables notices; nil Log and Metrics discard.
type Deps struct {
	Notices *notice.Ring
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Discard()
	}
	return d
}

// Emitter writes readings for one sensor at a fixed pace.
type Emitter struct {
	id       int
	kind     sensorq.Kind
	w        io.Writer
	sim      *Simulator
	limiter  *rate.Limiter
	logEvery int
	deps     Deps
	log      *zap.Logger
	emitted  atomix.Int64
}

// NewEmitter creates an emitter for sensor id writing frames to w.
// Writes to w must be safe if w is shared.
func NewEmitter(id int, kind sensorq.Kind, w io.Writer, cfg Config, deps Deps) *Emitter {
	deps = deps.withDefaults()
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return &Emitter{
		id:       id,
		kind:     kind,
		w:        w,
		sim:      NewSimulator(kind, cfg.Variation, uint64(time.Now().UnixNano())+uint64(id)),
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		logEvery: cfg.LogEvery,
		deps:     deps,
		log:      deps.Log.Named("sensor").With(zap.Int("sensor", id), zap.Stringer("kind", kind)),
	}
}

// Emitted returns the number of readings written so far.
func (e *Emitter) Emitted() int64 {
	return e.emitted.Load()
}

// Run emits readings until ctx ends or a write fails.
// It returns nil when stopped through ctx.
func (e *Emitter) Run(ctx context.Context) error {
	e.log.Info("sensor started")
	defer func() { e.log.Info("sensor stopped", zap.Int64("emitted", e.emitted.Load())) }()

	for {
		// Wait also fails early when the next slot lies past the ctx
		// deadline; either way the emitter is done.
		if err := e.limiter.Wait(ctx); err != nil {
			return nil
		}
		if err := e.emit(); err != nil {
			return err
		}
	}
}

func (e *Emitter) emit() error {
	r := sensorq.Reading{
		Kind:      e.kind,
		SensorID:  e.id,
		Value:     e.sim.Next(),
		Timestamp: time.Now(),
		Active:    true,
	}
	if err := wire.WriteReading(e.w, &r); err != nil {
		return fmt.Errorf("sensor %d: write reading: %w", e.id, err)
	}
	n := e.emitted.Add(1)
	e.deps.Metrics.Emitted.WithLabelValues(e.kind.String()).Inc()

	if e.deps.Notices != nil {
		nt := notice.Notice{SensorID: e.id, Kind: e.kind, Value: r.Value, At: r.Timestamp}
		if err := e.deps.Notices.Enqueue(&nt); err != nil {
			e.deps.Metrics.NoticesDropped.Inc()
		}
	}

	if e.logEvery > 0 && n%int64(e.logEvery) == 0 {
		e.log.Info("reading sent", zap.Int64("count", n), zap.Float64("value", r.Value))
	}
	return nil
}
