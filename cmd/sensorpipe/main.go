// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

// Command sensorpipe runs the full monitoring pipeline: sensors, feed,
// consumer workers, control interface and notice monitor.
//
// Configuration comes from the environment (see internal/config); flags
// override the most common settings.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"code.hybscloud.com/sensorq/internal/config"
	"code.hybscloud.com/sensorq/internal/logging"
	"code.hybscloud.com/sensorq/internal/supervisor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	flag.IntVar(&cfg.Queue.Capacity, "capacity", cfg.Queue.Capacity, "shared queue capacity")
	flag.IntVar(&cfg.Processor.Consumers, "consumers", cfg.Processor.Consumers, "consumer workers")
	flag.DurationVar(&cfg.RunFor, "run-for", cfg.RunFor, "stop after this long (0 runs until signal)")
	flag.StringVar(&cfg.Metrics.Addr, "metrics", cfg.Metrics.Addr, "Prometheus listen address (empty disables)")
	flag.Parse()

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := supervisor.Run(ctx, cfg, log.Logger, reg); err != nil {
		log.Error("sensorpipe failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}
