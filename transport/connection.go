// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/DaneJoe001/ProjectTrans-sub001/assembler"
	"github.com/DaneJoe001/ProjectTrans-sub001/envelope"
	"github.com/DaneJoe001/ProjectTrans-sub001/timer"
)

// pendingCall is one outstanding request's correlation record (spec.md
// §4.7's Correlation table entry), reachable either through a
// connection's pending map (by request_id) or, on expiry, through the
// Wheel's own scheduled task. Exactly one of recvLoop, the Wheel's timeout
// callback, or an explicit Cancel ever runs callback to completion — see
// complete.
type pendingCall struct {
	requestID uint64
	traceID   uuid.UUID // attached to log lines only; requestID remains the source of truth
	callback  ResponseCallback
	timerID   timer.TaskID
	done      int32
}

func (p *pendingCall) complete(resp envelope.Response, err error) {
	if !atomic.CompareAndSwapInt32(&p.done, 0, 1) {
		return
	}
	p.callback(resp, err)
}

// connection is one dialed, multiplexed TCP connection to an Endpoint,
// grounded on other_examples' ClientTransport: a single recvLoop goroutine
// owns all reads and dispatches by request_id, while writes are serialized
// through sendMu so concurrent Request calls never interleave frames.
type connection struct {
	endpoint string
	conn     net.Conn
	wheel    *timer.Wheel

	sendMu sync.Mutex
	asm    *assembler.Assembler

	pending sync.Map // uint64 request_id -> *pendingCall

	closeOnce sync.Once
	closed    chan struct{}
}

func dialConnection(endpoint string, dialTimeout time.Duration, maxPayloadLen int, wheel *timer.Wheel) (*connection, error) {
	conn, err := net.DialTimeout("tcp", endpoint, dialTimeout)
	if err != nil {
		return nil, err
	}
	c := &connection{
		endpoint: endpoint,
		conn:     conn,
		wheel:    wheel,
		asm:      assembler.New(assembler.WithMaxPayloadLen(maxPayloadLen)),
		closed:   make(chan struct{}),
	}
	go c.recvLoop()
	return c, nil
}

func (c *connection) send(frame []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	_, err := c.conn.Write(frame)
	return err
}

func (c *connection) recvLoop() {
	buf := make([]byte, 64*1024)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.asm.Push(buf[:n])
			for {
				payload, ok := c.asm.PopFrame()
				if !ok {
					break
				}
				c.dispatch(payload)
			}
			if c.asm.Poisoned() {
				c.teardown(c.asm.Err())
				return
			}
		}
		if err != nil {
			c.teardown(err)
			return
		}
	}
}

func (c *connection) dispatch(payload []byte) {
	resp, err := envelope.DecodeResponse(payload)
	if err != nil {
		return
	}
	v, ok := c.pending.LoadAndDelete(resp.RequestID)
	if !ok {
		return
	}
	pc := v.(*pendingCall)
	c.wheel.CancelPeriodicTask(pc.timerID)
	pc.complete(resp, nil)
}

// teardown runs once per connection: it closes the socket and fails every
// still-outstanding call with ErrDisconnected.
func (c *connection) teardown(_ error) {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
		c.pending.Range(func(key, value any) bool {
			c.pending.Delete(key)
			pc := value.(*pendingCall)
			c.wheel.CancelPeriodicTask(pc.timerID)
			pc.complete(envelope.Response{}, ErrDisconnected)
			return true
		})
	})
}

func (c *connection) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
