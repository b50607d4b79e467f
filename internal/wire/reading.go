// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"code.hybscloud.com/sensorq"
	"google.golang.org/protobuf/encoding/protowire"
)

// Reading field numbers.
const (
	fieldKind      protowire.Number = 1
	fieldSensorID  protowire.Number = 2
	fieldValue     protowire.Number = 3
	fieldTimestamp protowire.Number = 4
	fieldActive    protowire.Number = 5
)

// AppendReading appends the wire encoding of r to b.
func AppendReading(b []byte, r *sensorq.Reading) []byte {
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Kind))
	b = protowire.AppendTag(b, fieldSensorID, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(r.SensorID)))
	b = protowire.AppendTag(b, fieldValue, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(r.Value))
	if !r.Timestamp.IsZero() {
		b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.Timestamp.UnixNano()))
	}
	if r.Active {
		b = protowire.AppendTag(b, fieldActive, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	return b
}

// DecodeReading decodes a payload produced by AppendReading.
// Unknown fields are skipped.
func DecodeReading(b []byte) (sensorq.Reading, error) {
	var r sensorq.Reading
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return sensorq.Reading{}, malformed(n)
		}
		b = b[n:]

		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return sensorq.Reading{}, malformed(n)
			}
			r.Kind = sensorq.Kind(int32(v))
			b = b[n:]
		case num == fieldSensorID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return sensorq.Reading{}, malformed(n)
			}
			r.SensorID = int(protowire.DecodeZigZag(v))
			b = b[n:]
		case num == fieldValue && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return sensorq.Reading{}, malformed(n)
			}
			r.Value = math.Float64frombits(v)
			b = b[n:]
		case num == fieldTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return sensorq.Reading{}, malformed(n)
			}
			r.Timestamp = time.Unix(0, int64(v))
			b = b[n:]
		case num == fieldActive && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return sensorq.Reading{}, malformed(n)
			}
			r.Active = protowire.DecodeBool(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return sensorq.Reading{}, malformed(n)
			}
			b = b[n:]
		}
	}
	return r, nil
}

// WriteReading writes r as one frame.
func WriteReading(w io.Writer, r *sensorq.Reading) error {
	var buf [64]byte
	return WriteFrame(w, AppendReading(buf[:0], r))
}

// Decoder reads framed readings from a stream.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next reading.
//
// A payload that fails to decode, or a length prefix above MaxFrameSize,
// returns an error wrapping ErrMalformed; the caller may skip it and
// continue. Any other error ends the stream.
func (d *Decoder) Next() (sensorq.Reading, error) {
	payload, err := ReadFrame(d.r)
	if err != nil {
		return sensorq.Reading{}, err
	}
	return DecodeReading(payload)
}

// Recoverable reports whether a Decoder can continue after err: the bad
// frame was consumed whole or the stream was resynchronized.
func Recoverable(err error) bool {
	return errors.Is(err, ErrMalformed) && !errors.Is(err, io.ErrUnexpectedEOF)
}

func malformed(n int) error {
	return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
}
