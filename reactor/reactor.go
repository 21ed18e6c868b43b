//go:build linux

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package reactor implements the server-side event loop (spec.md §4.4): a
// single OS thread polling a listening socket and every accepted connection
// with epoll, feeding complete frames to a business thread through a
// to_business Mailbox and draining a to_client Mailbox back onto the wire.
//
// This replaces the teacher's io.Reader/io.Writer-driven, retry-on-EAGAIN
// framer (internal.go's readOnce/writeOnce/waitOnceOnWouldBlock) with raw
// non-blocking sockets owned directly by one epoll instance, since spec.md
// requires the reactor to never block the OS thread on a single
// connection's I/O. The retry-on-EAGAIN shape survives in readConn/writeConn
// below; only the underlying transport changed.
package reactor

import (
	"context"
	"net"
	"strconv"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Reactor owns one listening socket and every connection accepted from it.
// All fields below are touched only by the goroutine running Run; Metrics
// is the sole exception, backed by atomics so it may be read concurrently.
type Reactor struct {
	opts Options
	log  zerolog.Logger

	listenFD int
	epfd     int
	wakeFD   int

	conns  map[int]*connState // by fd
	byID   map[ConnID]int     // ConnID -> fd
	nextID uint64

	ToBusiness *Mailbox
	toClient   *Mailbox

	metrics  metricsState
	stopping int32
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a Reactor bound to opts.ListenAddr. The socket is created and
// bound eagerly so callers can detect a bad address before calling Run.
func New(log zerolog.Logger, opts ...Option) (*Reactor, error) {
	o := resolveOptions(opts...)
	if o.ListenAddr == "" {
		return nil, errors.New("reactor: ListenAddr is required")
	}

	lfd, err := listenSocket(o.ListenAddr, o.Backlog)
	if err != nil {
		return nil, err
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		unix.Close(lfd)
		return nil, errors.Wrap(err, "reactor: epoll_create1")
	}

	wakeFD, err := unix.Eventfd(0, unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		unix.Close(lfd)
		return nil, errors.Wrap(err, "reactor: eventfd")
	}

	r := &Reactor{
		opts:     o,
		log:      log.With().Str("component", "reactor").Logger(),
		listenFD: lfd,
		epfd:     epfd,
		wakeFD:   wakeFD,
		conns:    make(map[int]*connState),
		byID:     make(map[ConnID]int),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	r.toClient = NewMailbox(o.MailboxCapacity, r.wake)
	r.ToBusiness = NewMailbox(o.MailboxCapacity, nil)

	if err := r.epollAdd(lfd, unix.EPOLLIN); err != nil {
		r.closeAll()
		return nil, err
	}
	if err := r.epollAdd(wakeFD, unix.EPOLLIN); err != nil {
		r.closeAll()
		return nil, err
	}
	return r, nil
}

// ToClient returns the mailbox the business thread pushes responses into.
// Pushing to it wakes the reactor's epoll_wait via the eventfd.
func (r *Reactor) ToClient() *Mailbox { return r.toClient }

// Addr reports the address the listening socket is actually bound to,
// useful when New was given a ":0" port and the kernel chose one.
func (r *Reactor) Addr() (string, error) { return boundAddr(r.listenFD) }

func boundAddr(fd int) (string, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return "", errors.Wrap(err, "reactor: getsockname")
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return "", errors.New("reactor: unexpected socket address type")
	}
	ip := net.IPv4(sa4.Addr[0], sa4.Addr[1], sa4.Addr[2], sa4.Addr[3])
	return net.JoinHostPort(ip.String(), strconv.Itoa(sa4.Port)), nil
}

func listenSocket(addr string, backlog int) (int, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return 0, errors.Wrap(err, "reactor: resolve listen address")
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return 0, errors.Wrap(err, "reactor: socket")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return 0, errors.Wrap(err, "reactor: setsockopt SO_REUSEADDR")
	}
	sa := &unix.SockaddrInet4{Port: tcpAddr.Port}
	if ip4 := tcpAddr.IP.To4(); ip4 != nil {
		copy(sa.Addr[:], ip4)
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return 0, errors.Wrap(err, "reactor: bind")
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return 0, errors.Wrap(err, "reactor: listen")
	}
	return fd, nil
}

func (r *Reactor) epollAdd(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return errors.Wrapf(err, "reactor: epoll_ctl add fd %d", fd)
	}
	return nil
}

func (r *Reactor) epollMod(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return errors.Wrapf(err, "reactor: epoll_ctl mod fd %d", fd)
	}
	return nil
}

func (r *Reactor) epollDel(fd int) {
	_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// wake is the to_client Mailbox's onPush callback: write one 8-byte counter
// increment to the eventfd so a blocked epoll_wait returns immediately.
func (r *Reactor) wake() {
	var buf [8]byte
	buf[0] = 1
	_, _ = unix.Write(r.wakeFD, buf[:])
}

// Stop requests the run loop to exit and blocks until it has. It is safe to
// call concurrently with Run and more than once.
func (r *Reactor) Stop() {
	if !atomic.CompareAndSwapInt32(&r.stopping, 0, 1) {
		<-r.doneCh
		return
	}
	close(r.stopCh)
	r.wake()
	<-r.doneCh
}

// Run executes the event loop until ctx is cancelled or Stop is called. It
// always runs on whichever goroutine calls it; callers that want a
// dedicated OS thread should call runtime.LockOSThread before invoking Run.
func (r *Reactor) Run(ctx context.Context) error {
	defer close(r.doneCh)
	defer r.closeAll()

	go func() {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-r.stopCh:
		}
	}()

	events := make([]unix.EpollEvent, 256)
	for {
		select {
		case <-r.stopCh:
			return ctx.Err()
		default:
		}

		n, err := unix.EpollWait(r.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return errors.Wrap(err, "reactor: epoll_wait")
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			switch {
			case fd == r.listenFD:
				r.handleAccept()
			case fd == r.wakeFD:
				r.drainWake()
				r.handleOutbound()
			default:
				r.handleConnEvent(fd, events[i].Events)
			}
		}
	}
}

func (r *Reactor) drainWake() {
	var buf [8]byte
	for {
		_, err := unix.Read(r.wakeFD, buf[:])
		if err != nil {
			return
		}
	}
}

func (r *Reactor) handleAccept() {
	for {
		if r.opts.MaxConnections > 0 && len(r.conns) >= r.opts.MaxConnections {
			return
		}
		nfd, _, err := unix.Accept4(r.listenFD, unix.SOCK_NONBLOCK)
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			r.log.Warn().Err(err).Msg("accept4 failed")
			return
		}
		r.nextID++
		id := ConnID(r.nextID)
		cs := newConnState(id, nfd, r.opts.MaxPayloadLen)
		r.conns[nfd] = cs
		r.byID[id] = nfd
		atomic.AddInt64(&r.metrics.connectionsAccepted, 1)
		atomic.AddInt64(&r.metrics.connectionsActive, 1)
		if err := r.epollAdd(nfd, unix.EPOLLIN); err != nil {
			r.closeConn(cs, err)
			continue
		}
		r.log.Debug().Uint64("conn_id", uint64(id)).Str("trace_id", cs.traceID.String()).Msg("accepted connection")
	}
}

func (r *Reactor) handleConnEvent(fd int, events uint32) {
	cs, ok := r.conns[fd]
	if !ok {
		return
	}
	if events&(unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		r.closeConn(cs, errors.New("reactor: socket error or hangup"))
		return
	}
	if events&unix.EPOLLIN != 0 {
		if !r.readConn(cs) {
			return
		}
	}
	if events&unix.EPOLLOUT != 0 {
		r.writeConn(cs)
	}
}

// readConn drains fd until EAGAIN, EOF, or a fatal error. It returns false
// if the connection was closed as a result, so the caller must not touch cs
// again.
func (r *Reactor) readConn(cs *connState) bool {
	buf := make([]byte, r.opts.ReadBufferSize)
	for {
		n, err := unix.Read(cs.fd, buf)
		if n > 0 {
			cs.asm.Push(buf[:n])
			for {
				payload, ok := cs.asm.PopFrame()
				if !ok {
					break
				}
				frame := Frame{ConnID: cs.id, Payload: payload}
				if perr := r.ToBusiness.Push(frame); perr != nil {
					return false
				}
				atomic.AddInt64(&r.metrics.framesReceived, 1)
			}
			if cs.asm.Poisoned() {
				r.closeConn(cs, cs.asm.Err())
				return false
			}
		}
		if err != nil {
			if err == unix.EAGAIN {
				return true
			}
			if n == 0 {
				r.closeConn(cs, nil) // clean EOF
				return false
			}
			r.closeConn(cs, err)
			return false
		}
		if n == 0 {
			r.closeConn(cs, nil)
			return false
		}
	}
}

// pushOutbound queues frame (a fully wrapped wire frame) for delivery to
// id and arms EPOLLOUT if this is the first pending write. Only called
// from within the reactor loop, by handleOutbound after popping a frame
// the business thread pushed onto toClient.
func (r *Reactor) pushOutbound(id ConnID, frame []byte) {
	fd, ok := r.byID[id]
	if !ok {
		return // connection already gone; response is simply dropped
	}
	cs := r.conns[fd]
	hadPending := cs.pending()
	cs.queue(frame)
	if !hadPending && !cs.wantWrite {
		cs.wantWrite = true
		_ = r.epollMod(fd, unix.EPOLLIN|unix.EPOLLOUT)
	}
}

func (r *Reactor) handleOutbound() {
	for {
		f, ok := r.toClient.TryPop()
		if !ok {
			return
		}
		r.pushOutbound(f.ConnID, f.Payload)
	}
}

func (r *Reactor) writeConn(cs *connState) {
	for {
		chunk := cs.nextChunk()
		if chunk == nil {
			if cs.wantWrite {
				cs.wantWrite = false
				_ = r.epollMod(cs.fd, unix.EPOLLIN)
			}
			return
		}
		n, err := unix.Write(cs.fd, chunk)
		if n > 0 {
			cs.advance(n)
			atomic.AddInt64(&r.metrics.framesSent, 1)
		}
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			r.closeConn(cs, err)
			return
		}
		if n == 0 {
			return
		}
	}
}

func (r *Reactor) closeConn(cs *connState, cause error) {
	if cs.closing {
		return
	}
	cs.closing = true
	r.epollDel(cs.fd)
	_ = unix.Close(cs.fd)
	delete(r.conns, cs.fd)
	delete(r.byID, cs.id)
	atomic.AddInt64(&r.metrics.connectionsActive, -1)
	if cause != nil {
		atomic.AddInt64(&r.metrics.connectionErrors, 1)
		r.log.Debug().Uint64("conn_id", uint64(cs.id)).Str("trace_id", cs.traceID.String()).Err(cause).Msg("connection closed")
	} else {
		r.log.Debug().Uint64("conn_id", uint64(cs.id)).Str("trace_id", cs.traceID.String()).Msg("connection closed")
	}
}

func (r *Reactor) closeAll() {
	for _, cs := range r.conns {
		r.closeConn(cs, nil)
	}
	r.epollDel(r.listenFD)
	r.epollDel(r.wakeFD)
	_ = unix.Close(r.listenFD)
	_ = unix.Close(r.wakeFD)
	_ = unix.Close(r.epfd)
	// to_client is closed by business.Worker.Run, its sole producer, not
	// here: the reactor is only ever a consumer of it.
	r.ToBusiness.Close()
}
