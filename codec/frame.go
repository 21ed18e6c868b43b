// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"
)

// HeaderLen is the fixed size, in bytes, of a frame header (Magic + PayloadLen).
const HeaderLen = 4 + 4

const frameHeaderLen = HeaderLen

// Options configures frame wrapping/unwrapping limits.
type Options struct {
	// MaxPayloadLen caps the payload length Unwrap will accept. Zero means
	// DefaultMaxPayloadLen.
	MaxPayloadLen int
}

var defaultOptions = Options{MaxPayloadLen: DefaultMaxPayloadLen}

// Option configures frame wrap/unwrap behavior.
type Option func(*Options)

// WithMaxPayloadLen overrides the payload length cap.
func WithMaxPayloadLen(n int) Option {
	return func(o *Options) { o.MaxPayloadLen = n }
}

func resolveOptions(opts []Option) Options {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Wrap frames an arbitrary payload: Magic || PayloadLen || Payload.
func Wrap(payload []byte) []byte {
	out := make([]byte, frameHeaderLen+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], Magic)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(payload)))
	copy(out[frameHeaderLen:], payload)
	return out
}

// Unwrap validates a complete frame's header and returns its payload.
// It rejects a bad magic (ReasonBadMagic) or an oversize payload length
// (ReasonTooLong), and a short frame (ReasonTruncated).
func Unwrap(frame []byte, opts ...Option) ([]byte, error) {
	o := resolveOptions(opts)
	if len(frame) < frameHeaderLen {
		return nil, newProtocolError(ReasonTruncated)
	}
	magic := binary.LittleEndian.Uint32(frame[0:4])
	if magic != Magic {
		return nil, newProtocolError(ReasonBadMagic)
	}
	payloadLen := binary.LittleEndian.Uint32(frame[4:8])
	max := o.MaxPayloadLen
	if max <= 0 {
		max = DefaultMaxPayloadLen
	}
	if payloadLen > uint32(max) {
		return nil, newProtocolError(ReasonTooLong)
	}
	if len(frame) < frameHeaderLen+int(payloadLen) {
		return nil, newProtocolError(ReasonTruncated)
	}
	return frame[frameHeaderLen : frameHeaderLen+int(payloadLen)], nil
}

// ParseHeader reads just the header of a frame buffer (which may be
// shorter than the full frame) and reports whether enough bytes are present
// to know the payload length, along with that length. It is used by the
// assembler, which must parse a header before it knows how many more bytes
// to wait for.
func ParseHeader(buf []byte, opts ...Option) (payloadLen int, ok bool, err error) {
	if len(buf) < frameHeaderLen {
		return 0, false, nil
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != Magic {
		return 0, false, newProtocolError(ReasonBadMagic)
	}
	o := resolveOptions(opts)
	max := o.MaxPayloadLen
	if max <= 0 {
		max = DefaultMaxPayloadLen
	}
	n := binary.LittleEndian.Uint32(buf[4:8])
	if n > uint32(max) {
		return 0, false, newProtocolError(ReasonTooLong)
	}
	return int(n), true, nil
}
