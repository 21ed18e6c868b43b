// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import "sync/atomic"

// metricsState holds the reactor's running counters. Every field is
// updated with atomic ops from the single reactor goroutine and read with
// atomic ops from whichever goroutine calls Metrics, so the struct itself
// needs no lock.
type metricsState struct {
	connectionsAccepted int64
	connectionsActive   int64
	connectionErrors    int64
	framesReceived      int64
	framesSent          int64
}

// Metrics is a point-in-time snapshot of a Reactor's counters, exposed for
// /ping-adjacent diagnostics and for tests.
type Metrics struct {
	ConnectionsAccepted int64
	ConnectionsActive   int64
	ConnectionErrors    int64
	FramesReceived      int64
	FramesSent          int64
}

// Metrics returns a snapshot of the reactor's counters. Safe to call from
// any goroutine while Run is executing.
func (r *Reactor) Metrics() Metrics {
	return Metrics{
		ConnectionsAccepted: atomic.LoadInt64(&r.metrics.connectionsAccepted),
		ConnectionsActive:   atomic.LoadInt64(&r.metrics.connectionsActive),
		ConnectionErrors:    atomic.LoadInt64(&r.metrics.connectionErrors),
		FramesReceived:      atomic.LoadInt64(&r.metrics.framesReceived),
		FramesSent:          atomic.LoadInt64(&r.metrics.framesSent),
	}
}
