// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 100, cfg.Queue.Capacity)

	assert.Equal(t, 3, cfg.Processor.Consumers)
	assert.Equal(t, 100*time.Millisecond, cfg.Processor.Delay)
	assert.InDelta(t, 1.1, cfg.Processor.Gain, 1e-9)
	assert.Equal(t, 5, cfg.Processor.LogEvery)

	assert.Equal(t, time.Second, cfg.Sensor.Interval)
	assert.InDelta(t, 2.5, cfg.Sensor.Variation, 1e-9)
	assert.Equal(t, 10, cfg.Sensor.LogEvery)

	assert.Equal(t, "/tmp/sensor_data_fifo", cfg.FIFO.DataPath)
	assert.Equal(t, "/tmp/control_fifo", cfg.FIFO.ControlPath)
	assert.Equal(t, 20, cfg.FIFO.OpenRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.FIFO.OpenInterval)

	assert.Equal(t, 16, cfg.Notice.Capacity)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Zero(t, cfg.RunFor)

	assert.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"QUEUE_CAPACITY":     "8",
		"CONSUMERS":          "5",
		"PROCESS_DELAY":      "0s",
		"PROCESS_GAIN":       "2",
		"SENSOR_INTERVAL":    "250ms",
		"DATA_FIFO":          "/run/sensor/data",
		"CONTROL_FIFO":       "/run/sensor/control",
		"FIFO_OPEN_RETRIES":  "3",
		"FIFO_OPEN_INTERVAL": "10ms",
		"NOTICE_CAPACITY":    "32",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"METRICS_ADDR":       ":9102",
		"RUN_FOR":            "30s",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Queue.Capacity)
	assert.Equal(t, 5, cfg.Processor.Consumers)
	assert.Zero(t, cfg.Processor.Delay)
	assert.InDelta(t, 2.0, cfg.Processor.Gain, 1e-9)
	assert.Equal(t, 250*time.Millisecond, cfg.Sensor.Interval)
	assert.Equal(t, "/run/sensor/data", cfg.FIFO.DataPath)
	assert.Equal(t, "/run/sensor/control", cfg.FIFO.ControlPath)
	assert.Equal(t, 3, cfg.FIFO.OpenRetries)
	assert.Equal(t, 10*time.Millisecond, cfg.FIFO.OpenInterval)
	assert.Equal(t, 32, cfg.Notice.Capacity)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, ":9102", cfg.Metrics.Addr)
	assert.Equal(t, 30*time.Second, cfg.RunFor)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("QUEUE_CAPACITY", "0")
	t.Setenv("CONSUMERS", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUEUE_CAPACITY")
	assert.Contains(t, err.Error(), "CONSUMERS")

	cfg := LoadOrDefault()
	assert.Equal(t, 100, cfg.Queue.Capacity)
}

func TestLoadMalformed(t *testing.T) {
	t.Setenv("SENSOR_INTERVAL", "soon")

	_, err := Load()
	assert.Error(t, err)
}
