// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package main

import (
	"bufio"
	"context"
	"path/filepath"
	"testing"

	"code.hybscloud.com/sensorq"
	"code.hybscloud.com/sensorq/internal/control"
	"code.hybscloud.com/sensorq/internal/fifo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cmd, err := parse([]string{"start", "7", "humidity"})
	require.NoError(t, err)
	assert.Equal(t, control.Command{Op: control.OpStart, SensorID: 7, Kind: sensorq.Humidity}, cmd)

	cmd, err = parse([]string{"0", "2"})
	require.NoError(t, err)
	assert.Equal(t, control.Command{Op: control.OpStop, SensorID: 2}, cmd)

	cmd, err = parse([]string{"shutdown"})
	require.NoError(t, err)
	assert.Equal(t, control.OpShutdown, cmd.Op)

	for _, bad := range [][]string{
		nil,
		{"reboot"},
		{"stop"},
		{"stop", "x"},
		{"start", "1"},
		{"start", "1", "wind"},
		{"status", "1"},
	} {
		_, err := parse(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestSend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "control")
	require.NoError(t, fifo.Make(path))
	r, err := fifo.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	want := control.Command{Op: control.OpStatus, Message: "from test"}
	require.NoError(t, send(context.Background(), path, &want))

	got, err := control.ReadCommand(bufio.NewReader(r))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
