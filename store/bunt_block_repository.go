// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"
)

// BuntBlockRepository is a BlockRepository backed by an embedded buntdb
// database, the counterpart to BuntFileRepository for spec.md §6's
// block_info table. Blocks are keyed "block:<file_id>:<block_id>" so
// GetByFileID can range-scan a single file's blocks via AscendKeys on the
// "block:<file_id>:*" prefix, matching
// original_source/include/client/repository/block_request_info_repository.hpp's
// get_by_file_id / get_by_file_id_and_state operations.
type BuntBlockRepository struct {
	db *buntdb.DB
}

// NewBuntBlockRepository opens (or creates) a buntdb database at path.
func NewBuntBlockRepository(path string) (*BuntBlockRepository, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "store: open block_info database")
	}
	return &BuntBlockRepository{db: db}, nil
}

// Close releases the underlying database handle.
func (r *BuntBlockRepository) Close() error { return r.db.Close() }

const blockSeqKey = "seq:block"

func blockKey(fileID, blockID int64) string { return fmt.Sprintf("block:%d:%d", fileID, blockID) }

func (r *BuntBlockRepository) Create(_ context.Context, b *BlockInfo) (int64, error) {
	var id int64
	err := r.db.Update(func(tx *buntdb.Tx) error {
		next := int64(1)
		if v, err := tx.Get(blockSeqKey); err == nil {
			n, perr := strconv.ParseInt(v, 10, 64)
			if perr != nil {
				return perr
			}
			next = n + 1
		} else if !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}
		if _, _, err := tx.Set(blockSeqKey, strconv.FormatInt(next, 10), nil); err != nil {
			return err
		}
		id = next
		b.BlockID = id
		data, err := json.Marshal(b)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(blockKey(b.FileID, id), string(data), nil)
		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "store: create block_info")
	}
	return id, nil
}

func (r *BuntBlockRepository) GetByFileID(_ context.Context, fileID int64) ([]*BlockInfo, error) {
	var out []*BlockInfo
	err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(fmt.Sprintf("block:%d:*", fileID), func(_, v string) bool {
			var b BlockInfo
			if err := json.Unmarshal([]byte(v), &b); err == nil {
				out = append(out, &b)
			}
			return true
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "store: get block_info by file_id")
	}
	return out, nil
}

func (r *BuntBlockRepository) GetByFileIDAndState(ctx context.Context, fileID int64, state BlockState) ([]*BlockInfo, error) {
	all, err := r.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	out := make([]*BlockInfo, 0, len(all))
	for _, b := range all {
		if b.State == state {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *BuntBlockRepository) CountByFileIDAndState(ctx context.Context, fileID int64, state BlockState) (int, error) {
	blocks, err := r.GetByFileIDAndState(ctx, fileID, state)
	if err != nil {
		return 0, err
	}
	return len(blocks), nil
}

func (r *BuntBlockRepository) Update(_ context.Context, b *BlockInfo) error {
	data, err := json.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "store: marshal block_info")
	}
	err = r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(blockKey(b.FileID, b.BlockID), string(data), nil)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "store: put block_info")
	}
	return nil
}
