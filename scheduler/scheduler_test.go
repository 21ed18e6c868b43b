// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scheduler

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/DaneJoe001/ProjectTrans-sub001/assembler"
	"github.com/DaneJoe001/ProjectTrans-sub001/envelope"
	"github.com/DaneJoe001/ProjectTrans-sub001/store"
	"github.com/DaneJoe001/ProjectTrans-sub001/timer"
	"github.com/DaneJoe001/ProjectTrans-sub001/transport"
)

// startFileServer serves /download metadata and /block byte ranges out of
// an in-memory buffer, so scheduler tests never depend on a real server
// package.
func startFileServer(t *testing.T, fileID int64, data []byte) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	sum := md5.Sum(data)
	md5Code := hex.EncodeToString(sum[:])

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				asm := assembler.New()
				buf := make([]byte, 8192)
				for {
					n, err := conn.Read(buf)
					if n > 0 {
						asm.Push(buf[:n])
						for {
							payload, ok := asm.PopFrame()
							if !ok {
								break
							}
							req, derr := envelope.DecodeRequest(payload)
							if derr != nil {
								continue
							}
							resp := handleRequest(req, fileID, data, md5Code)
							_, _ = conn.Write(envelope.EncodeResponse(resp))
						}
					}
					if err != nil {
						return
					}
				}
			}()
		}
	}()
	return ln.Addr().String()
}

func handleRequest(req envelope.Request, fileID int64, data []byte, md5Code string) envelope.Response {
	switch req.Path {
	case envelope.PathDownload:
		in, err := envelope.DecodeDownloadRequestBody(req.Body)
		if err != nil || in.FileID != fileID {
			return envelope.NewResponse(req.RequestID, envelope.StatusNotFound, nil)
		}
		body := envelope.DownloadResponseBody{TaskID: in.TaskID, FileID: fileID, FileName: "payload.bin", FileSize: int64(len(data)), MD5Code: md5Code}
		return envelope.NewResponse(req.RequestID, envelope.StatusOK, body.Encode())
	case envelope.PathBlock:
		in, err := envelope.DecodeBlockRequestBody(req.Body)
		if err != nil {
			return envelope.NewResponse(req.RequestID, envelope.StatusBadRequest, nil)
		}
		end := in.Offset + in.BlockSize
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		body := envelope.BlockResponseBody{BlockID: in.BlockID, FileID: in.FileID, TaskID: in.TaskID, Offset: in.Offset, BlockSize: end - in.Offset, Data: data[in.Offset:end]}
		return envelope.NewResponse(req.RequestID, envelope.StatusOK, body.Encode())
	default:
		return envelope.NewResponse(req.RequestID, envelope.StatusNotFound, nil)
	}
}

func TestSchedulerDownloadsAndVerifiesMD5(t *testing.T) {
	data := make([]byte, 5*1024+37)
	for i := range data {
		data[i] = byte(i)
	}
	addr := startFileServer(t, 1, data)

	wheel := timer.New()
	defer wheel.Stop()
	client := transport.NewClient(zerolog.Nop(), wheel)
	defer client.Close()

	fileRepo := store.NewMemoryFileRepository()
	blockRepo := store.NewMemoryBlockRepository()
	sched := New(zerolog.Nop(), client, fileRepo, blockRepo, WithBlockSize(1024), WithWorkerCount(3))
	sched.Start(context.Background())
	defer sched.Stop()

	dest := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, sched.StartDownload(context.Background(), addr, 1, 100, dest))

	require.Eventually(t, func() bool {
		info, ok, err := fileRepo.Get(context.Background(), 1)
		return err == nil && ok && info.State == store.FileStateCompleted
	}, 5*time.Second, 10*time.Millisecond)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestCancelDownloadPausesThenResumeDownloadCompletes(t *testing.T) {
	data := make([]byte, 5*1024+37)
	for i := range data {
		data[i] = byte(i)
	}
	addr := startFileServer(t, 2, data)

	wheel := timer.New()
	defer wheel.Stop()
	client := transport.NewClient(zerolog.Nop(), wheel)
	defer client.Close()

	fileRepo := store.NewMemoryFileRepository()
	blockRepo := store.NewMemoryBlockRepository()
	// No workers yet: CancelDownload below races against nothing.
	sched := New(zerolog.Nop(), client, fileRepo, blockRepo, WithBlockSize(1024), WithWorkerCount(0))
	ctx := context.Background()

	dest := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, sched.StartDownload(ctx, addr, 2, 200, dest))

	sched.CancelDownload(ctx, 2)
	info, ok, err := fileRepo.Get(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, store.FileStatePaused, info.State)

	require.NoError(t, sched.ResumeDownload(ctx, 2))
	info, ok, err = fileRepo.Get(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, store.FileStateInTransfer, info.State)

	sched.Start(ctx)
	defer sched.Stop()

	require.Eventually(t, func() bool {
		info, ok, err := fileRepo.Get(ctx, 2)
		return err == nil && ok && info.State == store.FileStateCompleted
	}, 5*time.Second, 10*time.Millisecond)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestResumeDownloadRebuildsTrackerAfterRestart(t *testing.T) {
	data := make([]byte, 2500)
	for i := range data {
		data[i] = byte(i)
	}
	addr := startFileServer(t, 3, data)

	wheel := timer.New()
	defer wheel.Stop()
	client := transport.NewClient(zerolog.Nop(), wheel)
	defer client.Close()

	fileRepo := store.NewMemoryFileRepository()
	blockRepo := store.NewMemoryBlockRepository()
	ctx := context.Background()

	dest := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, preallocate(dest, int64(len(data))))
	require.NoError(t, fileRepo.Create(ctx, &store.FileInfo{
		FileID:     3,
		SavedName:  "payload.bin",
		SourceURL:  addr,
		SavedPath:  dest,
		FileSize:   int64(len(data)),
		Operation:  store.OperationDownload,
		State:      store.FileStatePaused,
	}))
	for _, b := range splitBlocks(int64(len(data)), 1024) {
		b.FileID = 3
		b.Operation = store.OperationDownload
		bb := b
		_, err := blockRepo.Create(ctx, &bb)
		require.NoError(t, err)
	}

	// Fresh Scheduler: no in-memory tracker exists for file 3 at all, the
	// way a restarted process would see a Paused row left by a prior run.
	sched := New(zerolog.Nop(), client, fileRepo, blockRepo, WithWorkerCount(3))
	sched.Start(ctx)
	defer sched.Stop()

	require.NoError(t, sched.ResumeDownload(ctx, 3))

	require.Eventually(t, func() bool {
		info, ok, err := fileRepo.Get(ctx, 3)
		return err == nil && ok && info.State == store.FileStateCompleted
	}, 5*time.Second, 10*time.Millisecond)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestSplitBlocksCoversWholeRangeWithShortFinalBlock(t *testing.T) {
	blocks := splitBlocks(2500, 1024)
	require.Len(t, blocks, 3)
	require.Equal(t, int64(0), blocks[0].Offset)
	require.Equal(t, int64(1024), blocks[0].BlockSize)
	require.Equal(t, int64(2048), blocks[2].Offset)
	require.Equal(t, int64(452), blocks[2].BlockSize)
}

func TestSplitBlocksEmptyFileYieldsNoBlocks(t *testing.T) {
	require.Empty(t, splitBlocks(0, 1024))
}
