// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"
)

// BuntFileRepository is a FileRepository backed by an embedded buntdb
// database. buntdb is grounded on rockstar-0000-aistore's go.mod
// (github.com/tidwall/buntdb), reused here as the concrete store behind
// spec.md §6's file_info table.
type BuntFileRepository struct {
	db *buntdb.DB
}

// NewBuntFileRepository opens (or creates) a buntdb database at path and
// returns a FileRepository over it. Pass ":memory:" for a non-persistent
// store, typically only useful in tests.
func NewBuntFileRepository(path string) (*BuntFileRepository, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "store: open file_info database")
	}
	return &BuntFileRepository{db: db}, nil
}

// Close releases the underlying database handle.
func (r *BuntFileRepository) Close() error { return r.db.Close() }

func fileKey(fileID int64) string { return fmt.Sprintf("file:%d", fileID) }

func (r *BuntFileRepository) Create(_ context.Context, f *FileInfo) error {
	return r.Update(nil, f)
}

func (r *BuntFileRepository) Get(_ context.Context, fileID int64) (*FileInfo, bool, error) {
	var out *FileInfo
	err := r.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(fileKey(fileID))
		if err != nil {
			if errors.Is(err, buntdb.ErrNotFound) {
				return nil
			}
			return err
		}
		var f FileInfo
		if err := json.Unmarshal([]byte(v), &f); err != nil {
			return err
		}
		out = &f
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "store: get file_info")
	}
	return out, out != nil, nil
}

func (r *BuntFileRepository) Update(_ context.Context, f *FileInfo) error {
	data, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "store: marshal file_info")
	}
	err = r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(fileKey(f.FileID), string(data), nil)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "store: put file_info")
	}
	return nil
}

func (r *BuntFileRepository) List(_ context.Context) ([]*FileInfo, error) {
	var out []*FileInfo
	err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("file:*", func(_, v string) bool {
			var f FileInfo
			if err := json.Unmarshal([]byte(v), &f); err == nil {
				out = append(out, &f)
			}
			return true
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "store: list file_info")
	}
	return out, nil
}
