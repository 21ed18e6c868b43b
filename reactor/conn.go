// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"github.com/google/uuid"

	"github.com/DaneJoe001/ProjectTrans-sub001/assembler"
)

// ConnID identifies one accepted connection for the lifetime of the
// process. It is never reused across connections, matching spec.md §4.4's
// requirement that the business thread can always tell stale frames
// (addressed to an already-closed connection) apart from live ones.
type ConnID uint64

// connState is the reactor's sole, single-threaded record of one connection.
// Every field here is touched only from the reactor's run loop goroutine;
// nothing in this type needs synchronization.
type connState struct {
	id      ConnID
	traceID uuid.UUID // attached to log lines only; ConnID remains the source of truth
	fd      int
	asm     *assembler.Assembler

	// outbound holds frames queued for this connection via pushOutbound;
	// nextChunk moves them one at a time into wireBuf as bytes are actually
	// written, so a connection with no backlog never allocates one.
	outbound  [][]byte
	wireBuf   []byte
	wireOff   int
	wantWrite bool // true while registered for EPOLLOUT

	closing bool
}

func newConnState(id ConnID, fd int, maxPayloadLen int) *connState {
	return &connState{
		id:      id,
		traceID: uuid.New(),
		fd:      fd,
		asm:     assembler.New(assembler.WithMaxPayloadLen(maxPayloadLen)),
	}
}

// queue appends a fully wrapped wire frame (codec.Wrap output) to the
// connection's outbound backlog.
func (c *connState) queue(frame []byte) {
	c.outbound = append(c.outbound, frame)
}

// pending reports whether there is unwritten data: either bytes already
// staged in wireBuf or frames still in the backlog.
func (c *connState) pending() bool {
	return c.wireOff < len(c.wireBuf) || len(c.outbound) > 0
}

// nextChunk returns the next slice of bytes to attempt writing, pulling the
// next queued frame into wireBuf once the current one is exhausted.
func (c *connState) nextChunk() []byte {
	for c.wireOff >= len(c.wireBuf) && len(c.outbound) > 0 {
		c.wireBuf = c.outbound[0]
		c.outbound = c.outbound[1:]
		c.wireOff = 0
	}
	if c.wireOff >= len(c.wireBuf) {
		return nil
	}
	return c.wireBuf[c.wireOff:]
}

// advance records n bytes of the current chunk as written.
func (c *connState) advance(n int) {
	c.wireOff += n
}
