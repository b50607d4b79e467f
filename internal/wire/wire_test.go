// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"code.hybscloud.com/sensorq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestReadingEncoding(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	cases := []sensorq.Reading{
		{Kind: sensorq.Temperature, SensorID: 1, Value: 24.71, Timestamp: at, Active: true},
		{Kind: sensorq.Pressure, SensorID: 4, Value: 1013.25},
		{Kind: sensorq.Humidity, SensorID: -3, Value: -0.5, Timestamp: at},
	}
	for _, want := range cases {
		got, err := DecodeReading(AppendReading(nil, &want))
		require.NoError(t, err)
		assert.Equal(t, want.Kind, got.Kind)
		assert.Equal(t, want.SensorID, got.SensorID)
		assert.Equal(t, want.Value, got.Value)
		assert.Equal(t, want.Active, got.Active)
		assert.True(t, want.Timestamp.Equal(got.Timestamp), "timestamp %v != %v", got.Timestamp, want.Timestamp)
	}
}

func TestDecodeReadingSkipsUnknownFields(t *testing.T) {
	r := sensorq.Reading{Kind: sensorq.Humidity, SensorID: 3, Value: 60}
	b := AppendReading(nil, &r)
	b = protowire.AppendTag(b, 42, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("firmware 1.2"))

	got, err := DecodeReading(b)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SensorID)
	assert.Equal(t, 60.0, got.Value)
}

func TestDecodeReadingMalformed(t *testing.T) {
	r := sensorq.Reading{Kind: sensorq.Temperature, SensorID: 1, Value: 25}
	b := AppendReading(nil, &r)

	_, err := DecodeReading(b[:len(b)-3])
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeReading([]byte{0xff})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFrameLimits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, bytes.Repeat([]byte{1}, MaxFrameSize)))
	assert.ErrorIs(t, WriteFrame(&buf, make([]byte, MaxFrameSize+1)), ErrFrameTooLarge)

	payload, err := ReadFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Len(t, payload, MaxFrameSize)

	oversized := protowire.AppendVarint(nil, MaxFrameSize+1)
	_, err = ReadFrame(bufio.NewReader(bytes.NewReader(oversized)))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

// countingWriter records the size of each Write call.
type countingWriter struct {
	bytes.Buffer
	writes []int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes = append(w.writes, len(p))
	return w.Buffer.Write(p)
}

func TestWriteReadingSingleWrite(t *testing.T) {
	var w countingWriter
	r := sensorq.Reading{Kind: sensorq.Temperature, SensorID: 2, Value: 26.3, Timestamp: time.Now(), Active: true}
	require.NoError(t, WriteReading(&w, &r))
	require.NoError(t, WriteReading(&w, &r))
	assert.Len(t, w.writes, 2)
	assert.Equal(t, w.writes[0], w.writes[1])
}

func TestDecoderStream(t *testing.T) {
	var buf bytes.Buffer
	for id := 1; id <= 4; id++ {
		r := sensorq.Reading{Kind: sensorq.Kind(id % 3), SensorID: id, Value: float64(id)}
		require.NoError(t, WriteReading(&buf, &r))
	}

	dec := NewDecoder(&buf)
	for id := 1; id <= 4; id++ {
		r, err := dec.Next()
		require.NoError(t, err)
		assert.Equal(t, id, r.SensorID)
	}
	_, err := dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoderRecoversFromBadPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{0xff}))
	good := sensorq.Reading{SensorID: 9, Value: 1}
	require.NoError(t, WriteReading(&buf, &good))

	dec := NewDecoder(&buf)
	_, err := dec.Next()
	require.Error(t, err)
	assert.True(t, Recoverable(err))

	r, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, 9, r.SensorID)
}

func TestDecoderResyncsAfterOversizedPrefix(t *testing.T) {
	pr, pw := io.Pipe()
	good := sensorq.Reading{SensorID: 7, Value: 2}
	go func() {
		// Each pipe write arrives as its own read.
		stray := append(protowire.AppendVarint(nil, MaxFrameSize+1000), "stray bytes"...)
		pw.Write(stray)
		WriteReading(pw, &good)
		pw.Close()
	}()

	dec := NewDecoder(pr)
	_, err := dec.Next()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.True(t, Recoverable(err))

	r, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, 7, r.SensorID)

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameOverlongPrefix(t *testing.T) {
	br := bufio.NewReader(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0x01, 0x02}))
	_, err := ReadFrame(br)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.True(t, Recoverable(err))

	_, err = ReadFrame(br)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoderTruncated(t *testing.T) {
	var buf bytes.Buffer
	r := sensorq.Reading{SensorID: 1, Value: 1}
	require.NoError(t, WriteReading(&buf, &r))
	frame := buf.Bytes()

	dec := NewDecoder(bytes.NewReader(frame[:len(frame)-2]))
	_, err := dec.Next()
	assert.ErrorIs(t, err, ErrMalformed)
	assert.False(t, Recoverable(err))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestDecoderReaderError(t *testing.T) {
	dec := NewDecoder(io.MultiReader(strings.NewReader(""), errReader{}))
	_, err := dec.Next()
	assert.ErrorIs(t, err, errBroken)
	assert.False(t, Recoverable(err))
}

var errBroken = errors.New("broken pipe")

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errBroken }
