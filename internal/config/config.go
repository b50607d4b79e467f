// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads pipeline configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all pipeline configuration.
type Config struct {
	Queue     QueueConfig
	Processor ProcessorConfig
	Sensor    SensorConfig
	FIFO      FIFOConfig
	Notice    NoticeConfig
	Logging   LogConfig
	Metrics   MetricsConfig

	// RunFor stops the pipeline after the given duration; zero runs until
	// a signal or a shutdown command.
	RunFor time.Duration `envconfig:"RUN_FOR" default:"0s"`
}

// QueueConfig sizes the shared reading buffer.
type QueueConfig struct {
	Capacity int `envconfig:"QUEUE_CAPACITY" default:"100"`
}

// ProcessorConfig holds consumer worker settings.
type ProcessorConfig struct {
	Consumers int           `envconfig:"CONSUMERS" default:"3"`
	Delay     time.Duration `envconfig:"PROCESS_DELAY" default:"100ms"`
	Gain      float64       `envconfig:"PROCESS_GAIN" default:"1.1"`
	LogEvery  int           `envconfig:"PROCESS_LOG_EVERY" default:"5"`
}

// SensorConfig holds emitter settings.
type SensorConfig struct {
	Interval  time.Duration `envconfig:"SENSOR_INTERVAL" default:"1s"`
	Variation float64       `envconfig:"SENSOR_VARIATION" default:"2.5"`
	LogEvery  int           `envconfig:"SENSOR_LOG_EVERY" default:"10"`
}

// FIFOConfig holds named pipe paths and open retry policy.
type FIFOConfig struct {
	DataPath     string        `envconfig:"DATA_FIFO" default:"/tmp/sensor_data_fifo"`
	ControlPath  string        `envconfig:"CONTROL_FIFO" default:"/tmp/control_fifo"`
	OpenRetries  int           `envconfig:"FIFO_OPEN_RETRIES" default:"20"`
	OpenInterval time.Duration `envconfig:"FIFO_OPEN_INTERVAL" default:"500ms"`
}

// NoticeConfig sizes the sensor notice ring.
type NoticeConfig struct {
	Capacity int `envconfig:"NOTICE_CAPACITY" default:"16"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// MetricsConfig holds the Prometheus endpoint address; empty disables it.
type MetricsConfig struct {
	Addr string `envconfig:"METRICS_ADDR" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Queue: QueueConfig{
			Capacity: 100,
		},
		Processor: ProcessorConfig{
			Consumers: 3,
			Delay:     100 * time.Millisecond,
			Gain:      1.1,
			LogEvery:  5,
		},
		Sensor: SensorConfig{
			Interval:  time.Second,
			Variation: 2.5,
			LogEvery:  10,
		},
		FIFO: FIFOConfig{
			DataPath:     "/tmp/sensor_data_fifo",
			ControlPath:  "/tmp/control_fifo",
			OpenRetries:  20,
			OpenInterval: 500 * time.Millisecond,
		},
		Notice: NoticeConfig{
			Capacity: 16,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// Validate reports every setting that would prevent the pipeline from
// starting.
func (c *Config) Validate() error {
	var errs []error
	if c.Queue.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("QUEUE_CAPACITY must be > 0, got %d", c.Queue.Capacity))
	}
	if c.Processor.Consumers <= 0 {
		errs = append(errs, fmt.Errorf("CONSUMERS must be > 0, got %d", c.Processor.Consumers))
	}
	if c.Processor.Delay < 0 {
		errs = append(errs, fmt.Errorf("PROCESS_DELAY must be >= 0, got %s", c.Processor.Delay))
	}
	if c.Sensor.Interval <= 0 {
		errs = append(errs, fmt.Errorf("SENSOR_INTERVAL must be > 0, got %s", c.Sensor.Interval))
	}
	if c.Sensor.Variation < 0 {
		errs = append(errs, fmt.Errorf("SENSOR_VARIATION must be >= 0, got %g", c.Sensor.Variation))
	}
	if c.FIFO.DataPath == "" || c.FIFO.ControlPath == "" {
		errs = append(errs, errors.New("DATA_FIFO and CONTROL_FIFO must be set"))
	}
	if c.FIFO.OpenRetries <= 0 {
		errs = append(errs, fmt.Errorf("FIFO_OPEN_RETRIES must be > 0, got %d", c.FIFO.OpenRetries))
	}
	if c.RunFor < 0 {
		errs = append(errs, fmt.Errorf("RUN_FOR must be >= 0, got %s", c.RunFor))
	}
	return errors.Join(errs...)
}
