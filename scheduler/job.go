// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scheduler

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/DaneJoe001/ProjectTrans-sub001/envelope"
	"github.com/DaneJoe001/ProjectTrans-sub001/store"
)

func (s *Scheduler) processJob(ctx context.Context, job blockJob) {
	tr := s.tracker(job.fileID)
	if tr == nil {
		return // download was never started or already finished in this process
	}
	if atomic.LoadInt32(&tr.paused) != 0 {
		// spec.md §4.9: a worker skips blocks whose parent file has been
		// paused by putting the block back and sleeping, rather than
		// discarding it or busy-spinning on the same job.
		s.enqueueJob(job)
		time.Sleep(pausedRetryDelay)
		return
	}

	block := job.block
	block.State = store.BlockStateInTransfer
	block.StartTime = time.Now()
	_ = s.blockRepo.Update(ctx, block)

	body := envelope.BlockRequestBody{
		BlockID:   block.BlockID,
		FileID:    job.fileID,
		TaskID:    tr.taskID,
		Offset:    block.Offset,
		BlockSize: block.BlockSize,
	}
	resp, err := s.client.Request(ctx, tr.endpoint, envelope.PathBlock, body.Encode(), 0)
	if err == nil && resp.Status == envelope.StatusOK {
		if out, derr := envelope.DecodeBlockResponseBody(resp.Body); derr == nil {
			if werr := s.writeBlock(tr.destPath, block.Offset, out.Data); werr == nil {
				block.State = store.BlockStateCompleted
				block.EndTime = time.Now()
				_ = s.blockRepo.Update(ctx, block)
				s.onBlockDone(ctx, job.fileID, tr)
				return
			}
		}
	}

	s.retryOrFail(ctx, job, tr)
}

func (s *Scheduler) writeBlock(destPath string, offset int64, data []byte) error {
	f, err := os.OpenFile(destPath, os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteAt(data, offset)
	return err
}

func (s *Scheduler) retryOrFail(ctx context.Context, job blockJob, tr *fileTracker) {
	job.attempt++
	if job.attempt > MaxBlockRetries {
		job.block.State = store.BlockStateFailed
		_ = s.blockRepo.Update(ctx, job.block)
		atomic.StoreInt32(&tr.failed, 1)
		s.onBlockDone(ctx, job.fileID, tr)
		return
	}
	job.block.State = store.BlockStateWaiting
	_ = s.blockRepo.Update(ctx, job.block)
	s.enqueueJob(job)
}

func (s *Scheduler) enqueueJob(job blockJob) {
	select {
	case s.queue <- job:
	default:
		go func() { s.queue <- job }()
	}
}

// onBlockDone runs after every block — success or exhausted-retry failure —
// and finalizes the file once none remain outstanding.
func (s *Scheduler) onBlockDone(ctx context.Context, fileID int64, tr *fileTracker) {
	if atomic.AddInt32(&tr.remaining, -1) > 0 {
		return
	}
	s.finishFile(ctx, fileID)
}

func (s *Scheduler) finishFile(ctx context.Context, fileID int64) {
	tr := s.tracker(fileID)
	if tr == nil {
		return
	}
	info, ok, err := s.fileRepo.Get(ctx, fileID)
	if err != nil || !ok {
		return
	}
	if atomic.LoadInt32(&tr.failed) != 0 {
		info.State = store.FileStateFailed
		_ = s.fileRepo.Update(ctx, info)
		return
	}

	sum, err := computeMD5(tr.destPath)
	if err != nil || (info.MD5Code != "" && sum != info.MD5Code) {
		info.State = store.FileStateFailed
	} else {
		info.State = store.FileStateCompleted
		info.MD5Code = sum
		info.FinishedTime = time.Now()
	}
	_ = s.fileRepo.Update(ctx, info)

	s.mu.Lock()
	delete(s.files, fileID)
	s.mu.Unlock()
}

// pausedRetryDelay is how long a worker sleeps after putting back a block
// belonging to a paused file, so the queue doesn't spin hot on it.
const pausedRetryDelay = 200 * time.Millisecond

// CancelDownload pauses fileID's transfer: its tracker stays alive, but
// every still-queued block job for it is put back on the queue when a
// worker picks it up, instead of processed, until ResumeDownload clears the
// pause. A block whose request is already in flight finishes normally.
// Paused is a temporary state, not a terminal one — ResumeDownload or
// ResumeAll can restart the transfer later, including after a process
// restart.
func (s *Scheduler) CancelDownload(ctx context.Context, fileID int64) {
	if tr := s.tracker(fileID); tr != nil {
		atomic.StoreInt32(&tr.paused, 1)
	}

	info, ok, err := s.fileRepo.Get(ctx, fileID)
	if err != nil || !ok {
		return
	}
	info.State = store.FileStatePaused
	_ = s.fileRepo.Update(ctx, info)
}
