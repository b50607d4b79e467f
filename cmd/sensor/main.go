// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

// Command sensor runs one sensor emitter that writes into the data pipe of
// a running sensorpipe.
//
// Usage:
//
//	sensor <sensor_id> <sensor_type>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"code.hybscloud.com/sensorq"
	"code.hybscloud.com/sensorq/internal/config"
	"code.hybscloud.com/sensorq/internal/fifo"
	"code.hybscloud.com/sensorq/internal/logging"
	"code.hybscloud.com/sensorq/internal/sensor"
	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: %s <sensor_id> <sensor_type>

sensor_type:
  0 | temperature
  1 | humidity
  2 | pressure
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	id, err := strconv.Atoi(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid sensor_id %q\n", flag.Arg(0))
		os.Exit(2)
	}
	kind, err := sensorq.ParseKind(flag.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := logging.New(logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, id, kind, log.Logger); err != nil {
		log.Error("sensor failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, id int, kind sensorq.Kind, log *zap.Logger) error {
	w, err := fifo.OpenWriter(ctx, cfg.FIFO.DataPath, fifo.Retry{
		Attempts: cfg.FIFO.OpenRetries,
		Interval: cfg.FIFO.OpenInterval,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	e := sensor.NewEmitter(id, kind, w, sensor.Config{
		Interval:  cfg.Sensor.Interval,
		Variation: cfg.Sensor.Variation,
		LogEvery:  cfg.Sensor.LogEvery,
	}, sensor.Deps{Log: log})
	return e.Run(ctx)
}
