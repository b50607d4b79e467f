// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"code.hybscloud.com/sensorq"
	"code.hybscloud.com/sensorq/internal/metrics"
	"code.hybscloud.com/sensorq/internal/sensor"
	"code.hybscloud.com/sensorq/internal/wire"
	"go.uber.org/zap"
)

// Fleet is the set of sensors a command acts on.
type Fleet interface {
	Start(id int, kind sensorq.Kind) error
	Stop(id int) error
	Status() []sensor.Status
}

// Interface applies commands read from the control pipe.
type Interface struct {
	fleet    Fleet
	shutdown func()
	log      *zap.Logger
	m        *metrics.Metrics
}

// NewInterface returns an Interface acting on fleet. shutdown is called
// once when a shutdown command arrives; it may be nil.
func NewInterface(fleet Fleet, shutdown func(), log *zap.Logger, m *metrics.Metrics) *Interface {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.Discard()
	}
	if shutdown == nil {
		shutdown = func() {}
	}
	return &Interface{fleet: fleet, shutdown: shutdown, log: log.Named("control"), m: m}
}

// Run reads and applies commands until a shutdown command, EOF, or ctx
// ends. If r is an io.Closer it is closed once ctx ends so a blocked read
// returns.
//
// A command that fails to apply is logged and does not stop the loop.
func (c *Interface) Run(ctx context.Context, r io.Reader) error {
	if cl, ok := r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { cl.Close() })
		defer stop()
	}

	c.log.Info("waiting for control commands")
	br := bufio.NewReader(r)
	for {
		cmd, err := ReadCommand(br)
		if err != nil {
			switch {
			case wire.Recoverable(err):
				c.log.Warn("skipping command", zap.Error(err))
				continue
			case errors.Is(err, io.EOF), errors.Is(err, os.ErrClosed), ctx.Err() != nil:
				return nil
			default:
				return fmt.Errorf("control: %w", err)
			}
		}

		if done := c.Apply(cmd); done {
			return nil
		}
	}
}

// Apply executes one command. It reports true for a shutdown command.
func (c *Interface) Apply(cmd Command) bool {
	c.m.Commands.WithLabelValues(cmd.Op.String()).Inc()
	log := c.log.With(zap.Stringer("op", cmd.Op), zap.Int("sensor", cmd.SensorID))
	if cmd.Message != "" {
		log = log.With(zap.String("note", cmd.Message))
	}
	log.Info("command received")

	var err error
	switch cmd.Op {
	case OpStop:
		err = c.fleet.Stop(cmd.SensorID)
	case OpStart:
		err = c.fleet.Start(cmd.SensorID, cmd.Kind)
	case OpStatus:
		status := c.fleet.Status()
		log.Info("fleet status", zap.Int("running", len(status)))
		for _, s := range status {
			log.Info("sensor status",
				zap.Int("id", s.ID),
				zap.Stringer("kind", s.Kind),
				zap.Int64("emitted", s.Emitted))
		}
	case OpShutdown:
		log.Info("shutdown requested")
		c.shutdown()
		return true
	default:
		err = fmt.Errorf("control: unknown op %d", int32(cmd.Op))
	}
	if err != nil {
		log.Warn("command failed", zap.Error(err))
	}
	return false
}
