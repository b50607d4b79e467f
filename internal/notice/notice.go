// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package notice carries short status notices from sensor emitters to the
// control monitor.
//
// Emitters publish from many goroutines; the monitor is the only reader.
// The transport is a bounded lock-free ring. A full ring rejects the
// notice with iox.ErrWouldBlock and the emitter drops it: notices are
// advisory and must never stall data emission.
package notice

import (
	"fmt"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/sensorq"
)

// Notice is one status line published by a sensor.
type Notice struct {
	SensorID int
	Kind     sensorq.Kind
	Value    float64
	At       time.Time
}

// String formats the notice as SENSOR-<id>:<value>.
func (n Notice) String() string {
	return fmt.Sprintf("SENSOR-%d:%.2f", n.SensorID, n.Value)
}

// ErrWouldBlock is returned by Enqueue on a full ring and by Dequeue on
// an empty one.
var ErrWouldBlock = iox.ErrWouldBlock
