// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package business implements the single-threaded worker that turns decoded
// requests into responses (spec.md §4.6). It owns no socket and no epoll
// instance; it only ever touches the two Mailbox values handed to it by a
// reactor.Reactor.
//
// Dispatch here is deliberately linear — decode, handle-by-path, encode —
// the same three-phase shape as the teacher's Forwarder.ForwardOnce
// (forward.go), collapsed from a resumable non-blocking state machine into
// straight-line code because business, unlike the reactor, is allowed to
// block on local disk I/O.
package business

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DaneJoe001/ProjectTrans-sub001/envelope"
	"github.com/DaneJoe001/ProjectTrans-sub001/reactor"
	"github.com/DaneJoe001/ProjectTrans-sub001/store"
)

// Worker drains a to_business Mailbox, dispatches each request by path, and
// pushes the response onto a to_client Mailbox. Never crashes the process
// on a per-request error — a request with a bad body, an unknown path or a
// failing handler becomes an error Response, per spec.md §4.6. A frame that
// does not decode as an envelope at all is logged and dropped without a
// response.
type Worker struct {
	log zerolog.Logger

	toBusiness *reactor.Mailbox
	toClient   *reactor.Mailbox

	files     FileStore
	fileRepo  store.FileRepository
	blockRepo store.BlockRepository

	cancelledTasks sync.Map // int64 task_id -> struct{}

	now func() time.Time
}

// NewWorker constructs a Worker. now defaults to time.Now; tests may
// override it through WithClock.
func NewWorker(log zerolog.Logger, toBusiness, toClient *reactor.Mailbox, files FileStore, fileRepo store.FileRepository, blockRepo store.BlockRepository) *Worker {
	return &Worker{
		log:        log.With().Str("component", "business").Logger(),
		toBusiness: toBusiness,
		toClient:   toClient,
		files:      files,
		fileRepo:   fileRepo,
		blockRepo:  blockRepo,
		now:        time.Now,
	}
}

// WithClock overrides the worker's time source, for deterministic /ping
// tests.
func (w *Worker) WithClock(now func() time.Time) *Worker {
	w.now = now
	return w
}

// Run drains toBusiness until ctx is cancelled or the mailbox closes. Worker
// is toClient's only producer, so Run closes it on the way out rather than
// leaving that to the reactor goroutine — closing a mailbox concurrently
// with a Push from its own producer is the one combination Mailbox.Close
// does not guard against.
func (w *Worker) Run(ctx context.Context) {
	defer w.toClient.Close()
	for {
		frame, err := w.toBusiness.PopContext(ctx)
		if err != nil {
			return
		}
		if err := w.handleFrame(ctx, frame); err != nil {
			return
		}
	}
}

// handleFrame answers one frame. It returns an error only when the response
// cannot be pushed to to_client, which stops Run.
func (w *Worker) handleFrame(ctx context.Context, frame reactor.Frame) error {
	req, err := envelope.DecodeRequest(frame.Payload)
	if err != nil {
		w.log.Warn().Err(err).Uint64("conn_id", uint64(frame.ConnID)).Msg("dropping malformed request")
		return nil
	}

	resp := w.dispatch(ctx, req)
	out := envelope.EncodeResponse(resp)
	if perr := w.toClient.Push(reactor.Frame{ConnID: frame.ConnID, Payload: out}); perr != nil {
		w.log.Error().Err(perr).Msg("to_client mailbox closed; stopping worker")
		return perr
	}
	return nil
}

func (w *Worker) dispatch(ctx context.Context, req envelope.Request) envelope.Response {
	switch req.Path {
	case envelope.PathTest:
		return w.handleTest(req)
	case envelope.PathDownload:
		return w.handleDownload(ctx, req)
	case envelope.PathBlock:
		return w.handleBlock(ctx, req)
	case envelope.PathUpload:
		return w.handleUpload(ctx, req)
	case envelope.PathCancel:
		return w.handleCancel(req)
	case envelope.PathPing:
		return w.handlePing(req)
	default:
		return errorResponse(req.RequestID, envelope.StatusNotFound)
	}
}

func errorResponse(requestID uint64, status envelope.Status) envelope.Response {
	return envelope.NewResponse(requestID, status, nil)
}

func (w *Worker) taskCancelled(taskID int64) bool {
	_, ok := w.cancelledTasks.Load(taskID)
	return ok
}
