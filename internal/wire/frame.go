// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire frames readings and commands for the named pipes.
//
// A frame is a uvarint payload length followed by the payload. Payloads
// are protobuf wire format encoded without generated code. A frame never
// exceeds MaxFrameSize payload bytes, so a whole frame fits in one atomic
// pipe write and concurrent writers sharing a pipe never interleave.
package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize is the largest payload a frame may carry.
const MaxFrameSize = 256

var (
	// ErrFrameTooLarge is returned for payloads above MaxFrameSize.
	ErrFrameTooLarge = errors.New("wire: frame too large")

	// ErrMalformed is returned for frames that cannot be decoded.
	ErrMalformed = errors.New("wire: malformed payload")
)

// AppendFrame appends the length prefix and payload to b.
func AppendFrame(b, payload []byte) ([]byte, error) {
	if len(payload) > MaxFrameSize {
		return b, ErrFrameTooLarge
	}
	b = binary.AppendUvarint(b, uint64(len(payload)))
	return append(b, payload...), nil
}

// WriteFrame writes payload as one frame with a single Write call.
func WriteFrame(w io.Writer, payload []byte) error {
	var buf [binary.MaxVarintLen16 + MaxFrameSize]byte
	frame, err := AppendFrame(buf[:0], payload)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// maxPrefixLen is the uvarint length of MaxFrameSize.
const maxPrefixLen = 2

// ReadFrame reads one frame and returns its payload.
// Returns io.EOF only at a clean frame boundary.
//
// A length prefix above MaxFrameSize means the stream lost its frame
// boundary. ReadFrame then discards the bytes already buffered and returns
// an error wrapping both ErrMalformed and ErrFrameTooLarge. Writers emit
// each frame in one pipe write, so reading resumes at the start of the
// next write; frames that arrived in the same read as the bad prefix are
// lost.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	n, err := readLength(r)
	if err != nil {
		if errors.Is(err, ErrFrameTooLarge) {
			discarded, _ := r.Discard(r.Buffered())
			return nil, fmt.Errorf("%w: %w: discarded %d bytes", ErrMalformed, err, discarded)
		}
		return nil, err
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: payload: %w", ErrMalformed, io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	return payload, nil
}

func readLength(r *bufio.Reader) (int, error) {
	var n int
	for i := range maxPrefixLen {
		b, err := r.ReadByte()
		if err != nil {
			if i > 0 && errors.Is(err, io.EOF) {
				return 0, fmt.Errorf("%w: length: %w", ErrMalformed, io.ErrUnexpectedEOF)
			}
			return 0, err
		}
		n |= int(b&0x7f) << (7 * i)
		if b < 0x80 {
			if n > MaxFrameSize {
				return 0, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
			}
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: length prefix exceeds %d bytes", ErrFrameTooLarge, maxPrefixLen)
}
