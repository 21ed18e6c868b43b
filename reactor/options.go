// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import "time"

// Options configures a Reactor. Mirrors the functional-options shape used
// throughout this module's codec/assembler layer.
type Options struct {
	ListenAddr       string
	Backlog          int
	MaxPayloadLen    int
	MailboxCapacity  int
	ReadBufferSize   int
	IdleWriteRetry   time.Duration
	MaxConnections   int
}

var defaultOptions = Options{
	Backlog:         1024,
	MaxPayloadLen:   16 * 1024 * 1024,
	MailboxCapacity: 1024,
	ReadBufferSize:  64 * 1024,
	IdleWriteRetry:  0,
	MaxConnections:  0, // unlimited
}

type Option func(*Options)

// WithListenAddr sets the TCP address the reactor listens on, e.g. ":9000".
func WithListenAddr(addr string) Option {
	return func(o *Options) { o.ListenAddr = addr }
}

// WithBacklog sets the listen(2) backlog.
func WithBacklog(n int) Option {
	return func(o *Options) { o.Backlog = n }
}

// WithMaxPayloadLen caps the frame payload length the assembler accepts per
// connection, matching codec.WithMaxPayloadLen.
func WithMaxPayloadLen(n int) Option {
	return func(o *Options) { o.MaxPayloadLen = n }
}

// WithMailboxCapacity sets the capacity of both the to_business and
// to_client mailboxes (spec.md §4.5).
func WithMailboxCapacity(n int) Option {
	return func(o *Options) { o.MailboxCapacity = n }
}

// WithReadBufferSize sets the size of the per-read scratch buffer used to
// drain a readable connection.
func WithReadBufferSize(n int) Option {
	return func(o *Options) { o.ReadBufferSize = n }
}

// WithMaxConnections caps the number of simultaneously accepted connections.
// Zero (the default) means unlimited.
func WithMaxConnections(n int) Option {
	return func(o *Options) { o.MaxConnections = n }
}

func resolveOptions(opts ...Option) Options {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
