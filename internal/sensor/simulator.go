// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sensor simulates sensors that emit readings into the data pipe.
package sensor

import (
	"math/rand/v2"

	"code.hybscloud.com/sensorq"
)

// BaseValue returns the resting value of a sensor kind.
func BaseValue(k sensorq.Kind) float64 {
	switch k {
	case sensorq.Temperature:
		return 25.0
	case sensorq.Humidity:
		return 60.0
	case sensorq.Pressure:
		return 1013.25
	default:
		return 0
	}
}

// Simulator produces values uniformly distributed in
// [base-variation, base+variation). Not safe for concurrent use.
type Simulator struct {
	base      float64
	variation float64
	rng       *rand.Rand
}

// NewSimulator returns a Simulator for kind seeded from seed.
func NewSimulator(k sensorq.Kind, variation float64, seed uint64) *Simulator {
	return &Simulator{
		base:      BaseValue(k),
		variation: variation,
		rng:       rand.New(rand.NewPCG(seed, uint64(k))),
	}
}

// Next returns the next simulated value.
func (s *Simulator) Next() float64 {
	return s.base + (s.rng.Float64()*2-1)*s.variation
}
