// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package business

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/DaneJoe001/ProjectTrans-sub001/store"
)

// ErrNotFound reports that a file_id has no known FileInfo row.
var ErrNotFound = errors.New("business: file not found")

// FileStore is the server side's view of a file's bytes on disk, the
// external collaborator behind the /download, /block and /upload handlers.
// spec.md treats file storage the same way it treats persistence: a
// collaborator specified only by this interface.
type FileStore interface {
	Stat(ctx context.Context, fileID int64) (store.FileInfo, error)
	ReadAt(fileID int64, offset int64, p []byte) (int, error)
	WriteAt(fileID int64, offset int64, p []byte) (int, error)
}

// DiskFileStore is a FileStore backed by plain files under baseDir, named
// by file_id, with metadata held in a store.FileRepository.
type DiskFileStore struct {
	baseDir string
	repo    store.FileRepository

	mu      sync.Mutex
	handles map[int64]*os.File
}

// NewDiskFileStore returns a DiskFileStore rooted at baseDir. baseDir must
// already exist.
func NewDiskFileStore(baseDir string, repo store.FileRepository) *DiskFileStore {
	return &DiskFileStore{baseDir: baseDir, repo: repo, handles: make(map[int64]*os.File)}
}

func (d *DiskFileStore) path(fileID int64) string {
	return filepath.Join(d.baseDir, strconv.FormatInt(fileID, 10))
}

func (d *DiskFileStore) Stat(ctx context.Context, fileID int64) (store.FileInfo, error) {
	f, ok, err := d.repo.Get(ctx, fileID)
	if err != nil {
		return store.FileInfo{}, errors.Wrap(err, "business: stat file")
	}
	if !ok {
		return store.FileInfo{}, ErrNotFound
	}
	return *f, nil
}

// handle returns the cached file handle for fileID, opening it if needed.
// create controls whether a missing file is materialized: ReadAt/Stat-ed
// downloads must fail closed against an unknown file_id rather than
// silently creating a zero-byte stand-in, so only WriteAt (upload) passes
// create=true.
func (d *DiskFileStore) handle(fileID int64, create bool) (*os.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f, ok := d.handles[fileID]; ok {
		return f, nil
	}
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(d.path(fileID), flags, 0o644)
	if err != nil {
		if !create && os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "business: open file")
	}
	d.handles[fileID] = f
	return f, nil
}

func (d *DiskFileStore) ReadAt(fileID int64, offset int64, p []byte) (int, error) {
	f, err := d.handle(fileID, false)
	if err != nil {
		return 0, err
	}
	n, err := f.ReadAt(p, offset)
	if err != nil && errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

func (d *DiskFileStore) WriteAt(fileID int64, offset int64, p []byte) (int, error) {
	f, err := d.handle(fileID, true)
	if err != nil {
		return 0, err
	}
	return f.WriteAt(p, offset)
}

// Close releases every open file handle.
func (d *DiskFileStore) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var firstErr error
	for id, f := range d.handles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(d.handles, id)
	}
	return firstErr
}
