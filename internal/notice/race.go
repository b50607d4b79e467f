// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package notice

// RaceEnabled is true when the race detector is active.
// Concurrent ring tests skip themselves: the detector cannot see the
// ordering established by the slot sequence numbers.
const RaceEnabled = true
