// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sensorq

import (
	"fmt"
	"time"
)

// Kind identifies the physical quantity a sensor measures.
type Kind int32

const (
	Temperature Kind = iota
	Humidity
	Pressure

	kindCount
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Temperature:
		return "temperature"
	case Humidity:
		return "humidity"
	case Pressure:
		return "pressure"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k >= Temperature && k < kindCount
}

// ParseKind accepts either the numeric code ("0".."2") or the name.
func ParseKind(s string) (Kind, error) {
	for k := Temperature; k < kindCount; k++ {
		if s == k.String() || s == fmt.Sprint(int32(k)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("sensorq: unknown sensor kind %q", s)
}

// Reading is one sensor measurement.
//
// Reading is a value type: it is copied into the queue by Push and copied
// out by Pop. The queue never inspects or validates its fields.
type Reading struct {
	Kind      Kind
	SensorID  int
	Value     float64
	Timestamp time.Time
	Active    bool
}
