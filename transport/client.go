// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package transport implements the client-side request/response
// correlator (spec.md §4.7): one TCP connection per Endpoint, multiplexed
// by request_id, with a Wheel-scheduled timeout racing the connection's
// recvLoop for every outstanding call. Grounded on
// other_examples/df1b0ede_BX-D-mini-RPC's ClientTransport (sequence-number
// multiplexing over sync.Map, a single recvLoop goroutine, a serialized
// send path) generalized from JSON-RPC framing to this module's
// codec/envelope wire format and given an explicit deadline per call
// instead of a bare heartbeat.
package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/DaneJoe001/ProjectTrans-sub001/envelope"
	"github.com/DaneJoe001/ProjectTrans-sub001/timer"
)

// ResponseCallback is invoked exactly once per request: with a decoded
// Response on success, or with a non-nil error (ErrTimeout, ErrDisconnected,
// ErrCancelled, or the write error when sending the request fails)
// otherwise.
type ResponseCallback func(resp envelope.Response, err error)

// Options configures a Client.
type Options struct {
	DialTimeout    time.Duration
	DefaultTimeout time.Duration
	MaxPayloadLen  int
}

var defaultOptions = Options{
	DialTimeout:    5 * time.Second,
	DefaultTimeout: 10 * time.Second,
	MaxPayloadLen:  16 * 1024 * 1024,
}

// Option configures a Client.
type Option func(*Options)

// WithDialTimeout overrides the per-connection dial timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(o *Options) { o.DialTimeout = d }
}

// WithDefaultTimeout overrides the timeout used by Request when none is
// given explicitly (a zero Duration argument to Request/RequestAsync).
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *Options) { o.DefaultTimeout = d }
}

// WithMaxPayloadLen overrides the per-connection assembler's payload cap.
func WithMaxPayloadLen(n int) Option {
	return func(o *Options) { o.MaxPayloadLen = n }
}

// Client dispatches requests to Endpoints, maintaining at most one
// connection per Endpoint and routing responses back to their caller by
// request_id.
type Client struct {
	log   zerolog.Logger
	wheel *timer.Wheel
	opts  Options

	mu    sync.Mutex
	conns map[string]*connection

	nextRequestID uint64
}

// NewClient constructs a Client. wheel is not owned by the Client — callers
// start and stop it independently, since it is commonly shared with a
// scheduler.
func NewClient(log zerolog.Logger, wheel *timer.Wheel, opts ...Option) *Client {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Client{
		log:   log.With().Str("component", "transport").Logger(),
		wheel: wheel,
		opts:  o,
		conns: make(map[string]*connection),
	}
}

func (c *Client) connFor(endpoint string) (*connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[endpoint]; ok {
		if !conn.isClosed() {
			return conn, nil
		}
		delete(c.conns, endpoint)
	}
	conn, err := dialConnection(endpoint, c.opts.DialTimeout, c.opts.MaxPayloadLen, c.wheel)
	if err != nil {
		return nil, err
	}
	c.conns[endpoint] = conn
	return conn, nil
}

// RequestAsync sends one request to endpoint and returns its request_id
// immediately. cb fires exactly once, from whichever of the connection's
// recvLoop goroutine or the timer Wheel's goroutine observes completion
// first. A zero timeout uses the Client's DefaultTimeout.
func (c *Client) RequestAsync(endpoint string, path envelope.Path, body []byte, timeout time.Duration, cb ResponseCallback) (uint64, error) {
	if timeout <= 0 {
		timeout = c.opts.DefaultTimeout
	}
	conn, err := c.connFor(endpoint)
	if err != nil {
		return 0, err
	}

	id := atomic.AddUint64(&c.nextRequestID, 1)
	pc := &pendingCall{requestID: id, traceID: uuid.New(), callback: cb}
	conn.pending.Store(id, pc)
	pc.timerID = c.wheel.AddTaskFor(timeout, func() {
		if _, ok := conn.pending.LoadAndDelete(id); ok {
			c.log.Debug().Uint64("request_id", id).Str("trace_id", pc.traceID.String()).Str("endpoint", endpoint).Msg("request timed out")
			pc.complete(envelope.Response{}, ErrTimeout)
		}
	})

	req := envelope.NewRequest(id, path, body)
	if err := conn.send(envelope.EncodeRequest(req)); err != nil {
		if _, ok := conn.pending.LoadAndDelete(id); ok {
			c.wheel.CancelPeriodicTask(pc.timerID)
			pc.complete(envelope.Response{}, err)
		}
		return id, err
	}
	return id, nil
}

// Request sends one request and blocks until a response, timeout,
// cancellation, or ctx cancellation — whichever comes first.
func (c *Client) Request(ctx context.Context, endpoint string, path envelope.Path, body []byte, timeout time.Duration) (envelope.Response, error) {
	type result struct {
		resp envelope.Response
		err  error
	}
	done := make(chan result, 1)
	_, err := c.RequestAsync(endpoint, path, body, timeout, func(resp envelope.Response, err error) {
		done <- result{resp, err}
	})
	if err != nil {
		return envelope.Response{}, err
	}
	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		return envelope.Response{}, ctx.Err()
	}
}

// Cancel fails a still-outstanding request with ErrCancelled. It reports
// false if the request already completed or is unknown.
func (c *Client) Cancel(endpoint string, requestID uint64) bool {
	c.mu.Lock()
	conn, ok := c.conns[endpoint]
	c.mu.Unlock()
	if !ok {
		return false
	}
	v, ok := conn.pending.LoadAndDelete(requestID)
	if !ok {
		return false
	}
	pc := v.(*pendingCall)
	c.wheel.CancelPeriodicTask(pc.timerID)
	pc.complete(envelope.Response{}, ErrCancelled)
	return true
}

// Close tears down every connection the Client has dialed.
func (c *Client) Close() error {
	c.mu.Lock()
	conns := c.conns
	c.conns = make(map[string]*connection)
	c.mu.Unlock()
	for _, conn := range conns {
		conn.teardown(nil)
	}
	return nil
}
