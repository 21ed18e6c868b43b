// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package business

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DaneJoe001/ProjectTrans-sub001/store"
)

func TestDiskFileStoreReadAtUnknownFileReturnsNotFoundWithoutCreatingFile(t *testing.T) {
	dir := t.TempDir()
	repo := store.NewMemoryFileRepository()
	ds := NewDiskFileStore(dir, repo)
	defer ds.Close()

	_, err := ds.ReadAt(123, 0, make([]byte, 4))
	require.ErrorIs(t, err, ErrNotFound)

	_, statErr := os.Stat(filepath.Join(dir, "123"))
	require.True(t, os.IsNotExist(statErr), "ReadAt must not materialize a file for an unknown file_id")
}

func TestDiskFileStoreWriteAtThenReadAtRoundTrips(t *testing.T) {
	dir := t.TempDir()
	repo := store.NewMemoryFileRepository()
	require.NoError(t, repo.Create(context.Background(), &store.FileInfo{FileID: 5, Operation: store.OperationUpload}))
	ds := NewDiskFileStore(dir, repo)
	defer ds.Close()

	n, err := ds.WriteAt(5, 0, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	got := make([]byte, 5)
	n, err = ds.ReadAt(5, 0, got)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte("hello"), got)
}
