// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package assembler accumulates inbound bytes as they arrive from a
// connection and emits complete frames in arrival order.
//
// It is the stateful, per-connection counterpart to codec, which is
// stateless. Unlike the teacher framer this package is adapted from,
// Assembler is push-based rather than pull-based: the reactor event loop
// cannot block waiting on an io.Reader, so bytes are handed to Push as they
// are read off a non-blocking socket, and PopFrame is drained in a loop
// after every Push. The header/payload phase split and the poison-on-bad-
// header behavior are carried over from the teacher's readStream state
// machine (internal.go), adapted from a pull loop over io.Reader to a
// push/pop accumulator over an in-memory buffer.
package assembler

import (
	"github.com/DaneJoe001/ProjectTrans-sub001/codec"
)

// Options configures an Assembler.
type Options struct {
	// MaxPayloadLen caps the payload length accepted from a frame header.
	// Zero means codec.DefaultMaxPayloadLen.
	MaxPayloadLen int
}

// Option configures an Assembler.
type Option func(*Options)

// WithMaxPayloadLen overrides the payload length cap.
func WithMaxPayloadLen(n int) Option {
	return func(o *Options) { o.MaxPayloadLen = n }
}

// Assembler accumulates bytes pushed from a single connection and yields
// complete frame payloads in order.
//
// It is not safe for concurrent use: spec.md's ownership model assigns one
// Assembler per ConnectionState, exclusively touched by the reactor thread.
type Assembler struct {
	maxPayloadLen int

	buf []byte // unconsumed bytes, header-first
	off int     // bytes already consumed from the front of buf

	poisoned bool
	poisonErr error
}

// New returns an empty Assembler.
func New(opts ...Option) *Assembler {
	o := Options{}
	for _, fn := range opts {
		fn(&o)
	}
	return &Assembler{maxPayloadLen: o.MaxPayloadLen}
}

// Push appends bytes to the internal buffer. It never blocks and never
// fails — malformed input is only detected (and only once) on PopFrame.
func (a *Assembler) Push(b []byte) {
	if len(b) == 0 {
		return
	}
	a.buf = append(a.buf, b...)
}

// PopFrame returns the next complete frame payload, if one is available.
// Frames are returned strictly in the order they were pushed.
//
// Once a malformed header is observed (bad magic or an oversize payload
// length), the Assembler transitions to a poisoned state: its buffer is
// discarded and every subsequent PopFrame returns (nil, false) with Err()
// reporting the same *codec.ProtocolError. Callers are expected to close
// the connection once poisoned.
func (a *Assembler) PopFrame() ([]byte, bool) {
	if a.poisoned {
		return nil, false
	}

	pending := a.buf[a.off:]
	payloadLen, ok, err := codec.ParseHeader(pending, codec.WithMaxPayloadLen(a.maxPayloadLen))
	if err != nil {
		a.poison(err)
		return nil, false
	}
	if !ok {
		a.compact()
		return nil, false
	}

	total := codec.HeaderLen + payloadLen
	if len(pending) < total {
		// Header is known but the payload hasn't fully arrived yet.
		return nil, false
	}

	payload := make([]byte, payloadLen)
	copy(payload, pending[codec.HeaderLen:total])
	a.off += total
	a.compact()
	return payload, true
}

// Err returns the sticky protocol error once the Assembler is poisoned, or
// nil otherwise.
func (a *Assembler) Err() error { return a.poisonErr }

// Poisoned reports whether the Assembler has entered the poisoned state.
func (a *Assembler) Poisoned() bool { return a.poisoned }

func (a *Assembler) poison(err error) {
	a.poisoned = true
	a.poisonErr = err
	a.buf = nil
	a.off = 0
}

// compact reclaims consumed leading bytes once they grow large relative to
// the unconsumed tail, avoiding unbounded growth across many small frames.
func (a *Assembler) compact() {
	if a.off == 0 {
		return
	}
	if a.off == len(a.buf) {
		a.buf = a.buf[:0]
		a.off = 0
		return
	}
	if a.off < 4096 && a.off < len(a.buf)/2 {
		return
	}
	a.buf = append(a.buf[:0], a.buf[a.off:]...)
	a.off = 0
}
