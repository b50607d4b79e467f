// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics defines the Prometheus collectors for the pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sensorq"

// Metrics holds all pipeline collectors.
type Metrics struct {
	// Queue
	Pushed     prometheus.Counter
	Popped     prometheus.Counter
	QueueDepth prometheus.Gauge

	// Processor
	Malformed      prometheus.Counter
	Processed      *prometheus.CounterVec
	ProcessLatency prometheus.Histogram

	// Sensors
	Emitted        *prometheus.CounterVec
	SensorsActive  prometheus.Gauge
	NoticesDropped prometheus.Counter
	NoticesRead    prometheus.Counter

	// Control
	Commands *prometheus.CounterVec
}

// New registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Pushed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_pushed_total",
			Help:      "Readings pushed into the shared queue.",
		}),
		Popped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_popped_total",
			Help:      "Readings popped from the shared queue.",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Readings buffered in the shared queue.",
		}),
		Malformed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_malformed_frames_total",
			Help:      "Frames from the data pipe that failed to decode.",
		}),
		Processed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processed_total",
			Help:      "Readings processed by consumer workers.",
		}, []string{"kind"}),
		ProcessLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reading_latency_seconds",
			Help:      "Time from reading capture to processing.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Emitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_emitted_total",
			Help:      "Readings written by sensor emitters.",
		}, []string{"kind"}),
		SensorsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensors_active",
			Help:      "Sensor emitters currently running.",
		}),
		NoticesDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_dropped_total",
			Help:      "Sensor notices dropped on a full notice ring.",
		}),
		NoticesRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_read_total",
			Help:      "Sensor notices consumed by the control monitor.",
		}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_commands_total",
			Help:      "Control commands received, by operation.",
		}, []string{"op"}),
	}
}

// Discard returns collectors registered nowhere.
func Discard() *Metrics {
	return New(prometheus.NewRegistry())
}

// Serve exposes g on addr at /metrics until ctx ends.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
