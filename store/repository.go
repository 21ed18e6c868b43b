// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import "context"

// FileRepository persists FileInfo rows. Named directly after
// original_source's client_file_info_repository.hpp.
type FileRepository interface {
	Create(ctx context.Context, f *FileInfo) error
	Get(ctx context.Context, fileID int64) (*FileInfo, bool, error)
	Update(ctx context.Context, f *FileInfo) error
	List(ctx context.Context) ([]*FileInfo, error)
}

// BlockRepository persists BlockInfo rows. Named directly after
// original_source's block_request_info_repository.hpp.
type BlockRepository interface {
	// Create assigns a block_id and persists b with it, returning the id.
	Create(ctx context.Context, b *BlockInfo) (int64, error)
	GetByFileID(ctx context.Context, fileID int64) ([]*BlockInfo, error)
	GetByFileIDAndState(ctx context.Context, fileID int64, state BlockState) ([]*BlockInfo, error)
	Update(ctx context.Context, b *BlockInfo) error
	CountByFileIDAndState(ctx context.Context, fileID int64, state BlockState) (int, error)
}
