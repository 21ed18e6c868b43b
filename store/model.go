// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store defines the persisted data model (spec.md §6's two logical
// tables, file_info and block_info) and the small repository interfaces the
// rest of the core depends on. spec.md treats the backing relational engine
// as an external collaborator specified only by this interface; this
// package also ships one concrete, embeddable implementation
// (bunt_file_repository.go, bunt_block_repository.go) backed by
// github.com/tidwall/buntdb rather than leaving the interface unimplemented.
package store

import "time"

// FileState is the lifecycle state of a FileInfo.
type FileState uint8

const (
	FileStateUnknown FileState = iota
	FileStateWaiting
	FileStateInTransfer
	FileStatePaused
	FileStateCompleted
	FileStateFailed
)

func (s FileState) String() string {
	switch s {
	case FileStateWaiting:
		return "waiting"
	case FileStateInTransfer:
		return "in_transfer"
	case FileStatePaused:
		return "paused"
	case FileStateCompleted:
		return "completed"
	case FileStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BlockState is the lifecycle state of a BlockInfo.
type BlockState uint8

const (
	BlockStateWaiting BlockState = iota
	BlockStateInTransfer
	BlockStateCompleted
	BlockStateFailed
)

func (s BlockState) String() string {
	switch s {
	case BlockStateWaiting:
		return "waiting"
	case BlockStateInTransfer:
		return "in_transfer"
	case BlockStateCompleted:
		return "completed"
	case BlockStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Operation distinguishes a download from an upload task, mirroring
// original_source's client/model/common.hpp Operation enum.
type Operation uint8

const (
	OperationUnknown Operation = iota
	OperationDownload
	OperationUpload
)

// FileInfo is spec.md §3's FileInfo entity / §6's file_info table.
type FileInfo struct {
	FileID       int64
	SavedName    string
	SourceURL    string
	SavedPath    string
	FileSize     int64
	Operation    Operation
	State        FileState
	MD5Code      string
	CreateTime   time.Time
	FinishedTime time.Time
}

// BlockInfo is spec.md §3's BlockInfo entity / §6's block_info table.
type BlockInfo struct {
	BlockID   int64
	FileID    int64
	Offset    int64
	BlockSize int64
	Operation Operation
	State     BlockState
	StartTime time.Time
	EndTime   time.Time
}
