//go:build linux

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/DaneJoe001/ProjectTrans-sub001/codec"
)

func startTestReactor(t *testing.T) (*Reactor, string) {
	t.Helper()
	r, err := New(zerolog.Nop(), WithListenAddr("127.0.0.1:0"))
	require.NoError(t, err)

	// The socket is already bound in New via listenSocket; recover the
	// ephemeral port the kernel assigned.
	addr, err := r.Addr()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		r.Stop()
		<-done
	})
	return r, addr
}

func TestReactorAcceptsAndEchoesOneFrame(t *testing.T) {
	r, addr := startTestReactor(t)

	go func() {
		f, err := r.ToBusiness.Pop()
		if err != nil {
			return
		}
		_ = r.toClient.Push(Frame{ConnID: f.ConnID, Payload: codec.Wrap(f.Payload)})
	}()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	payload := []byte("hello reactor")
	_, err = conn.Write(codec.Wrap(payload))
	require.NoError(t, err)

	buf := make([]byte, codec.HeaderLen+len(payload))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = readFull(conn, buf)
	require.NoError(t, err)

	got, err := codec.Unwrap(buf)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReactorClosesConnectionOnBadMagic(t *testing.T) {
	r, addr := startTestReactor(t)
	_ = r

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	garbage := make([]byte, codec.HeaderLen)
	_, err = conn.Write(garbage)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	one := make([]byte, 1)
	_, err = conn.Read(one)
	require.Error(t, err)
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
