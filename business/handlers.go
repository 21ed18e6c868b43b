// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package business

import (
	"context"
	"errors"

	"github.com/DaneJoe001/ProjectTrans-sub001/envelope"
)

func (w *Worker) handleTest(req envelope.Request) envelope.Response {
	in, err := envelope.DecodeTestRequestBody(req.Body)
	if err != nil {
		return errorResponse(req.RequestID, envelope.StatusBadRequest)
	}
	body := envelope.TestResponseBody{Message: in.Message}
	return envelope.NewResponse(req.RequestID, envelope.StatusOK, body.Encode())
}

func (w *Worker) handleDownload(ctx context.Context, req envelope.Request) envelope.Response {
	in, err := envelope.DecodeDownloadRequestBody(req.Body)
	if err != nil {
		return errorResponse(req.RequestID, envelope.StatusBadRequest)
	}
	info, err := w.files.Stat(ctx, in.FileID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			body := envelope.DownloadResponseBody{TaskID: in.TaskID, FileID: in.FileID}
			return envelope.NewResponse(req.RequestID, envelope.StatusNotFound, body.Encode())
		}
		return errorResponse(req.RequestID, envelope.StatusInternalServerError)
	}
	body := envelope.DownloadResponseBody{
		TaskID:   in.TaskID,
		FileID:   info.FileID,
		FileName: info.SavedName,
		FileSize: info.FileSize,
		MD5Code:  info.MD5Code,
	}
	return envelope.NewResponse(req.RequestID, envelope.StatusOK, body.Encode())
}

func (w *Worker) handleBlock(ctx context.Context, req envelope.Request) envelope.Response {
	in, err := envelope.DecodeBlockRequestBody(req.Body)
	if err != nil {
		return errorResponse(req.RequestID, envelope.StatusBadRequest)
	}
	if w.taskCancelled(in.TaskID) {
		return errorResponse(req.RequestID, envelope.StatusBadRequest)
	}
	if _, err := w.files.Stat(ctx, in.FileID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errorResponse(req.RequestID, envelope.StatusNotFound)
		}
		return errorResponse(req.RequestID, envelope.StatusInternalServerError)
	}

	data := make([]byte, in.BlockSize)
	n, err := w.files.ReadAt(in.FileID, in.Offset, data)
	if err != nil && n == 0 {
		if errors.Is(err, ErrNotFound) {
			return errorResponse(req.RequestID, envelope.StatusNotFound)
		}
		return errorResponse(req.RequestID, envelope.StatusInternalServerError)
	}
	body := envelope.BlockResponseBody{
		BlockID:   in.BlockID,
		FileID:    in.FileID,
		TaskID:    in.TaskID,
		Offset:    in.Offset,
		BlockSize: int64(n),
		Data:      data[:n],
	}
	return envelope.NewResponse(req.RequestID, envelope.StatusOK, body.Encode())
}

func (w *Worker) handleUpload(ctx context.Context, req envelope.Request) envelope.Response {
	in, err := envelope.DecodeUploadRequestBody(req.Body)
	if err != nil {
		return errorResponse(req.RequestID, envelope.StatusBadRequest)
	}
	n, err := w.files.WriteAt(in.FileID, in.Offset, in.Data)
	if err != nil {
		return errorResponse(req.RequestID, envelope.StatusInternalServerError)
	}
	body := envelope.UploadResponseBody{FileID: in.FileID, Offset: in.Offset, Written: int64(n)}
	return envelope.NewResponse(req.RequestID, envelope.StatusOK, body.Encode())
}

// handleCancel marks a task_id cancelled so in-flight /block reads for it
// are rejected on their next poll. It never fails: cancelling an unknown or
// already-finished task is idempotent, the same store-or-skip idempotency
// guard reactor.go's closeConn uses for connection teardown.
func (w *Worker) handleCancel(req envelope.Request) envelope.Response {
	in, err := envelope.DecodeCancelRequestBody(req.Body)
	if err != nil {
		return errorResponse(req.RequestID, envelope.StatusBadRequest)
	}
	w.cancelledTasks.Store(in.TaskID, struct{}{})
	body := envelope.CancelResponseBody{TaskID: in.TaskID, Cancelled: true}
	return envelope.NewResponse(req.RequestID, envelope.StatusOK, body.Encode())
}

func (w *Worker) handlePing(req envelope.Request) envelope.Response {
	body := envelope.PingResponseBody{ServerTime: w.now().Unix()}
	return envelope.NewResponse(req.RequestID, envelope.StatusOK, body.Encode())
}
