// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"sync"
)

// MemoryFileRepository is an in-process FileRepository, useful in tests and
// as a starting point before a buntdb path is configured.
type MemoryFileRepository struct {
	mu    sync.Mutex
	files map[int64]*FileInfo
}

func NewMemoryFileRepository() *MemoryFileRepository {
	return &MemoryFileRepository{files: make(map[int64]*FileInfo)}
}

func (r *MemoryFileRepository) Create(_ context.Context, f *FileInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	r.files[f.FileID] = &cp
	return nil
}

func (r *MemoryFileRepository) Get(_ context.Context, fileID int64) (*FileInfo, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok {
		return nil, false, nil
	}
	cp := *f
	return &cp, true, nil
}

func (r *MemoryFileRepository) Update(_ context.Context, f *FileInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	r.files[f.FileID] = &cp
	return nil
}

func (r *MemoryFileRepository) List(_ context.Context) ([]*FileInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*FileInfo, 0, len(r.files))
	for _, f := range r.files {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

// MemoryBlockRepository is an in-process BlockRepository.
type MemoryBlockRepository struct {
	mu     sync.Mutex
	blocks map[int64]*BlockInfo
	nextID int64
}

func NewMemoryBlockRepository() *MemoryBlockRepository {
	return &MemoryBlockRepository{blocks: make(map[int64]*BlockInfo)}
}

func (r *MemoryBlockRepository) Create(_ context.Context, b *BlockInfo) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	b.BlockID = r.nextID
	cp := *b
	r.blocks[b.BlockID] = &cp
	return b.BlockID, nil
}

func (r *MemoryBlockRepository) GetByFileID(_ context.Context, fileID int64) ([]*BlockInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*BlockInfo
	for _, b := range r.blocks {
		if b.FileID == fileID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryBlockRepository) GetByFileIDAndState(_ context.Context, fileID int64, state BlockState) ([]*BlockInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*BlockInfo
	for _, b := range r.blocks {
		if b.FileID == fileID && b.State == state {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryBlockRepository) CountByFileIDAndState(ctx context.Context, fileID int64, state BlockState) (int, error) {
	blocks, err := r.GetByFileIDAndState(ctx, fileID, state)
	return len(blocks), err
}

func (r *MemoryBlockRepository) Update(_ context.Context, b *BlockInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.blocks[b.BlockID] = &cp
	return nil
}
