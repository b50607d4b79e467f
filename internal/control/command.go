// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package control reads operator commands from the control pipe and
// watches sensor notices.
package control

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"code.hybscloud.com/sensorq"
	"code.hybscloud.com/sensorq/internal/wire"
	"google.golang.org/protobuf/encoding/protowire"
)

// Op is a control operation code.
type Op int32

const (
	OpStop Op = iota
	OpStart
	OpStatus
	OpShutdown
)

var opNames = [...]string{"stop", "start", "status", "shutdown"}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

// ParseOp accepts an operation name or its numeric code.
func ParseOp(s string) (Op, error) {
	for i, name := range opNames {
		if s == name || s == strconv.Itoa(i) {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("control: unknown op %q", s)
}

// Command is one operator request.
type Command struct {
	Op       Op
	SensorID int
	Kind     sensorq.Kind // Used by OpStart
	Message  string
}

const (
	fieldOp       protowire.Number = 1
	fieldSensorID protowire.Number = 2
	fieldKind     protowire.Number = 3
	fieldMessage  protowire.Number = 4
)

// AppendCommand appends the wire encoding of c to b.
func AppendCommand(b []byte, c *Command) []byte {
	b = protowire.AppendTag(b, fieldOp, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.Op))
	b = protowire.AppendTag(b, fieldSensorID, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(c.SensorID)))
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.Kind))
	if c.Message != "" {
		b = protowire.AppendTag(b, fieldMessage, protowire.BytesType)
		b = protowire.AppendString(b, c.Message)
	}
	return b
}

// DecodeCommand decodes a payload produced by AppendCommand.
func DecodeCommand(b []byte) (Command, error) {
	var c Command
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Command{}, malformed(n)
		}
		b = b[n:]

		switch {
		case num == fieldOp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Command{}, malformed(n)
			}
			c.Op = Op(int32(v))
			b = b[n:]
		case num == fieldSensorID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Command{}, malformed(n)
			}
			c.SensorID = int(protowire.DecodeZigZag(v))
			b = b[n:]
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Command{}, malformed(n)
			}
			c.Kind = sensorq.Kind(int32(v))
			b = b[n:]
		case num == fieldMessage && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Command{}, malformed(n)
			}
			c.Message = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Command{}, malformed(n)
			}
			b = b[n:]
		}
	}
	return c, nil
}

// WriteCommand writes c as one frame.
func WriteCommand(w io.Writer, c *Command) error {
	payload := AppendCommand(make([]byte, 0, 32), c)
	return wire.WriteFrame(w, payload)
}

// ReadCommand reads one framed command.
func ReadCommand(r *bufio.Reader) (Command, error) {
	payload, err := wire.ReadFrame(r)
	if err != nil {
		return Command{}, err
	}
	return DecodeCommand(payload)
}

func malformed(n int) error {
	return fmt.Errorf("%w: %v", wire.ErrMalformed, protowire.ParseError(n))
}
