// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package business

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/DaneJoe001/ProjectTrans-sub001/codec"
	"github.com/DaneJoe001/ProjectTrans-sub001/envelope"
	"github.com/DaneJoe001/ProjectTrans-sub001/reactor"
	"github.com/DaneJoe001/ProjectTrans-sub001/store"
)

func newTestWorker() (*Worker, *reactor.Mailbox, *reactor.Mailbox, *memFileStore) {
	toBusiness := reactor.NewMailbox(8, nil)
	toClient := reactor.NewMailbox(8, nil)
	fs := newMemFileStore()
	w := NewWorker(zerolog.Nop(), toBusiness, toClient, fs, store.NewMemoryFileRepository(), store.NewMemoryBlockRepository())
	return w, toBusiness, toClient, fs
}

func TestHandleTestEchoesMessage(t *testing.T) {
	w, _, _, _ := newTestWorker()
	body := envelope.TestRequestBody{Message: "ping"}
	req := envelope.NewRequest(1, envelope.PathTest, body.Encode())

	resp := w.dispatch(context.Background(), req)
	require.Equal(t, envelope.StatusOK, resp.Status)

	out, err := envelope.DecodeTestResponseBody(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "ping", out.Message)
}

func TestHandleDownloadReturnsMetadataForKnownFile(t *testing.T) {
	w, _, _, fs := newTestWorker()
	fs.put(store.FileInfo{FileID: 7, SavedName: "movie.mp4", FileSize: 1024, MD5Code: "abc"}, make([]byte, 1024))

	body := envelope.DownloadRequestBody{FileID: 7, TaskID: 42}
	req := envelope.NewRequest(2, envelope.PathDownload, body.Encode())
	resp := w.dispatch(context.Background(), req)
	require.Equal(t, envelope.StatusOK, resp.Status)

	out, err := envelope.DecodeDownloadResponseBody(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "movie.mp4", out.FileName)
	require.Equal(t, int64(1024), out.FileSize)
}

func TestHandleDownloadReturnsNotFoundForUnknownFile(t *testing.T) {
	w, _, _, _ := newTestWorker()
	body := envelope.DownloadRequestBody{FileID: 999}
	req := envelope.NewRequest(3, envelope.PathDownload, body.Encode())
	resp := w.dispatch(context.Background(), req)
	require.Equal(t, envelope.StatusNotFound, resp.Status)

	out, err := envelope.DecodeDownloadResponseBody(resp.Body)
	require.NoError(t, err)
	require.Equal(t, int64(999), out.FileID)
}

func TestHandleBlockReadsExactByteRange(t *testing.T) {
	w, _, _, fs := newTestWorker()
	data := []byte("0123456789abcdef")
	fs.put(store.FileInfo{FileID: 1}, data)

	body := envelope.BlockRequestBody{BlockID: 1, FileID: 1, TaskID: 1, Offset: 4, BlockSize: 6}
	req := envelope.NewRequest(4, envelope.PathBlock, body.Encode())
	resp := w.dispatch(context.Background(), req)
	require.Equal(t, envelope.StatusOK, resp.Status)

	out, err := envelope.DecodeBlockResponseBody(resp.Body)
	require.NoError(t, err)
	require.Equal(t, []byte("456789"), out.Data)
}

func TestHandleBlockReturnsNotFoundForUnknownFile(t *testing.T) {
	w, _, _, _ := newTestWorker()

	body := envelope.BlockRequestBody{FileID: 404, TaskID: 1, Offset: 0, BlockSize: 4}
	req := envelope.NewRequest(10, envelope.PathBlock, body.Encode())
	resp := w.dispatch(context.Background(), req)
	require.Equal(t, envelope.StatusNotFound, resp.Status)
}

func TestHandleBlockRejectsCancelledTask(t *testing.T) {
	w, _, _, fs := newTestWorker()
	fs.put(store.FileInfo{FileID: 1}, []byte("0123456789"))
	w.cancelledTasks.Store(int64(5), struct{}{})

	body := envelope.BlockRequestBody{FileID: 1, TaskID: 5, Offset: 0, BlockSize: 4}
	req := envelope.NewRequest(5, envelope.PathBlock, body.Encode())
	resp := w.dispatch(context.Background(), req)
	require.Equal(t, envelope.StatusBadRequest, resp.Status)
}

func TestHandleUploadWritesAtOffset(t *testing.T) {
	w, _, _, fs := newTestWorker()
	fs.put(store.FileInfo{FileID: 9}, make([]byte, 10))

	body := envelope.UploadRequestBody{FileID: 9, Offset: 3, Data: []byte("xyz")}
	req := envelope.NewRequest(6, envelope.PathUpload, body.Encode())
	resp := w.dispatch(context.Background(), req)
	require.Equal(t, envelope.StatusOK, resp.Status)

	got := make([]byte, 3)
	n, err := fs.ReadAt(9, 3, got)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte("xyz"), got)
}

func TestHandleCancelMarksTaskThenBlocksFail(t *testing.T) {
	w, _, _, fs := newTestWorker()
	fs.put(store.FileInfo{FileID: 1}, []byte("0123456789"))

	cancelBody := envelope.CancelRequestBody{TaskID: 11}
	resp := w.dispatch(context.Background(), envelope.NewRequest(7, envelope.PathCancel, cancelBody.Encode()))
	require.Equal(t, envelope.StatusOK, resp.Status)
	out, err := envelope.DecodeCancelResponseBody(resp.Body)
	require.NoError(t, err)
	require.True(t, out.Cancelled)

	blockBody := envelope.BlockRequestBody{FileID: 1, TaskID: 11, BlockSize: 4}
	resp2 := w.dispatch(context.Background(), envelope.NewRequest(8, envelope.PathBlock, blockBody.Encode()))
	require.Equal(t, envelope.StatusBadRequest, resp2.Status)
}

func TestHandlePingReturnsClockTime(t *testing.T) {
	w, _, _, _ := newTestWorker()
	fixed := time.Unix(1_700_000_000, 0)
	w.WithClock(func() time.Time { return fixed })

	resp := w.dispatch(context.Background(), envelope.NewRequest(9, envelope.PathPing, nil))
	require.Equal(t, envelope.StatusOK, resp.Status)
	out, err := envelope.DecodePingResponseBody(resp.Body)
	require.NoError(t, err)
	require.Equal(t, fixed.Unix(), out.ServerTime)
}

func TestRunDrainsToBusinessAndPushesToClient(t *testing.T) {
	w, toBusiness, toClient, _ := newTestWorker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	body := envelope.TestRequestBody{Message: "hi"}
	req := envelope.NewRequest(1, envelope.PathTest, body.Encode())
	payload, err := codec.Unwrap(envelope.EncodeRequest(req))
	require.NoError(t, err)
	require.NoError(t, toBusiness.Push(reactor.Frame{ConnID: 1, Payload: payload}))

	f, err := toClient.Pop()
	require.NoError(t, err)
	require.Equal(t, reactor.ConnID(1), f.ConnID)
}
