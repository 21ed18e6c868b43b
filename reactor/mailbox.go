// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"context"
	"errors"
)

// ErrMailboxClosed is returned by Push/Pop once a Mailbox has been closed
// and, for Pop, fully drained.
var ErrMailboxClosed = errors.New("reactor: mailbox closed")

// Frame is one (connection_id, payload) pair carried through a Mailbox in
// either direction.
type Frame struct {
	ConnID  ConnID
	Payload []byte
}

// Mailbox is a bounded MPMC queue carrying Frame values between the reactor
// thread and the business thread (spec.md §4.5). Sending to a to_client
// mailbox additionally signals a wakeup handle — that signaling is the
// Reactor's responsibility via the onPush callback passed to NewMailbox, not
// the Mailbox's, keeping this type transport-agnostic and reusable for both
// directions. The scheduler's block-request queue is a separate channel of
// its own and does not use Mailbox.
type Mailbox struct {
	ch     chan Frame
	closed chan struct{}
	onPush func()
}

// NewMailbox constructs a Mailbox with the given capacity. onPush, if
// non-nil, is invoked after every successful Push — the Reactor wires this
// to its wakeup handle for the to_client direction.
func NewMailbox(capacity int, onPush func()) *Mailbox {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Mailbox{ch: make(chan Frame, capacity), closed: make(chan struct{}), onPush: onPush}
}

// Push enqueues a frame, blocking while the mailbox is full. It returns
// ErrMailboxClosed if the mailbox is closed before or during the push.
func (m *Mailbox) Push(f Frame) error {
	select {
	case <-m.closed:
		return ErrMailboxClosed
	default:
	}
	select {
	case m.ch <- f:
		if m.onPush != nil {
			m.onPush()
		}
		return nil
	case <-m.closed:
		return ErrMailboxClosed
	}
}

// TryPush enqueues without blocking, reporting false if the mailbox is full
// or closed.
func (m *Mailbox) TryPush(f Frame) bool {
	select {
	case <-m.closed:
		return false
	default:
	}
	select {
	case m.ch <- f:
		if m.onPush != nil {
			m.onPush()
		}
		return true
	default:
		return false
	}
}

// Pop dequeues the next frame, blocking while the mailbox is empty. Once the
// mailbox is closed and drained, Pop returns ErrMailboxClosed.
func (m *Mailbox) Pop() (Frame, error) {
	f, ok := <-m.ch
	if !ok {
		return Frame{}, ErrMailboxClosed
	}
	return f, nil
}

// PopContext dequeues the next frame, blocking until one arrives, the
// mailbox closes, or ctx is done — whichever happens first. Business
// workers use this instead of Pop so a cancelled context can unwind them
// without requiring the reactor to close the mailbox first.
func (m *Mailbox) PopContext(ctx context.Context) (Frame, error) {
	select {
	case f, ok := <-m.ch:
		if !ok {
			return Frame{}, ErrMailboxClosed
		}
		return f, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// TryPop dequeues without blocking, reporting false if the mailbox is
// currently empty (closed-and-drained also reports false; callers checking
// for closure should use Pop).
func (m *Mailbox) TryPop() (Frame, bool) {
	select {
	case f, ok := <-m.ch:
		if !ok {
			return Frame{}, false
		}
		return f, true
	default:
		return Frame{}, false
	}
}

// Close closes the mailbox. Pending pushes blocked on a full queue observe
// ErrMailboxClosed; pops continue to drain already-queued frames before
// also observing it.
func (m *Mailbox) Close() {
	select {
	case <-m.closed:
		return
	default:
		close(m.closed)
		close(m.ch)
	}
}
