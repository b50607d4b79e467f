// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sensor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"code.hybscloud.com/sensorq"
	"go.uber.org/zap"
)

var (
	// ErrRunning is returned by Start for a sensor that is already running.
	ErrRunning = errors.New("sensor: already running")

	// ErrUnknown is returned by Stop for a sensor that is not running.
	ErrUnknown = errors.New("sensor: not running")

	// ErrInvalidKind is returned by Start for an undefined sensor kind.
	ErrInvalidKind = errors.New("sensor: invalid kind")

	// ErrFleetStopped is returned by Start after the fleet context ended.
	ErrFleetStopped = errors.New("sensor: fleet stopped")
)

// Spec names one sensor.
type Spec struct {
	ID   int
	Kind sensorq.Kind
}

// DefaultSensors is the standard set: two temperature sensors, one
// humidity sensor and one pressure sensor.
var DefaultSensors = []Spec{
	{ID: 1, Kind: sensorq.Temperature},
	{ID: 2, Kind: sensorq.Temperature},
	{ID: 3, Kind: sensorq.Humidity},
	{ID: 4, Kind: sensorq.Pressure},
}

// Status describes one running sensor.
type Status struct {
	ID      int
	Kind    sensorq.Kind
	Emitted int64
}

// Fleet runs a set of emitters that share one writer.
type Fleet struct {
	ctx  context.Context
	w    io.Writer
	cfg  Config
	deps Deps
	log  *zap.Logger

	mu      sync.Mutex
	members map[int]*member
	errs    []error
	wg      sync.WaitGroup
}

type member struct {
	e      *Emitter
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFleet creates an empty fleet. Emitters stop when ctx ends.
// Writes to w are serialized across emitters.
func NewFleet(ctx context.Context, w io.Writer, cfg Config, deps Deps) *Fleet {
	deps = deps.withDefaults()
	return &Fleet{
		ctx:     ctx,
		w:       &lockedWriter{w: w},
		cfg:     cfg,
		deps:    deps,
		log:     deps.Log.Named("fleet"),
		members: make(map[int]*member),
	}
}

// StartAll starts every sensor in specs.
func (f *Fleet) StartAll(specs []Spec) error {
	for _, s := range specs {
		if err := f.Start(s.ID, s.Kind); err != nil {
			return err
		}
	}
	return nil
}

// Start launches an emitter for sensor id.
func (f *Fleet) Start(id int, kind sensorq.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidKind, kind)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ctx.Err() != nil {
		return ErrFleetStopped
	}
	if _, ok := f.members[id]; ok {
		return fmt.Errorf("%w: sensor %d", ErrRunning, id)
	}

	ctx, cancel := context.WithCancel(f.ctx)
	m := &member{
		e:      NewEmitter(id, kind, f.w, f.cfg, f.deps),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	f.members[id] = m
	f.deps.Metrics.SensorsActive.Inc()

	f.wg.Add(1)
	go f.run(ctx, id, m)
	return nil
}

func (f *Fleet) run(ctx context.Context, id int, m *member) {
	defer f.wg.Done()
	defer close(m.done)
	defer m.cancel()

	err := m.e.Run(ctx)

	f.mu.Lock()
	if f.members[id] == m {
		delete(f.members, id)
	}
	if err != nil {
		f.errs = append(f.errs, err)
	}
	f.mu.Unlock()
	f.deps.Metrics.SensorsActive.Dec()

	if err != nil {
		f.log.Error("sensor failed", zap.Int("sensor", id), zap.Error(err))
	}
}

// Stop stops sensor id and waits for its emitter to exit.
func (f *Fleet) Stop(id int) error {
	f.mu.Lock()
	m, ok := f.members[id]
	if ok {
		delete(f.members, id)
	}
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: sensor %d", ErrUnknown, id)
	}

	m.cancel()
	<-m.done
	return nil
}

// StopAll stops every running sensor and waits for them to exit.
func (f *Fleet) StopAll() {
	f.mu.Lock()
	members := make([]*member, 0, len(f.members))
	for id, m := range f.members {
		members = append(members, m)
		delete(f.members, id)
	}
	f.mu.Unlock()

	for _, m := range members {
		m.cancel()
	}
	for _, m := range members {
		<-m.done
	}
}

// Status lists running sensors ordered by ID.
func (f *Fleet) Status() []Status {
	f.mu.Lock()
	out := make([]Status, 0, len(f.members))
	for id, m := range f.members {
		out = append(out, Status{ID: id, Kind: m.e.kind, Emitted: m.e.Emitted()})
	}
	f.mu.Unlock()

	slices.SortFunc(out, func(a, b Status) int { return a.ID - b.ID })
	return out
}

// Wait blocks until every emitter has exited and returns their write
// errors joined.
func (f *Fleet) Wait() error {
	f.wg.Wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	return errors.Join(f.errs...)
}

// lockedWriter serializes writes so frames from different emitters never
// interleave, whatever the underlying writer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
