// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix && !linux

package fifo

import "os"

// Pending always reports an empty pipe on this platform.
func Pending(*os.File) (int, error) {
	return 0, nil
}
