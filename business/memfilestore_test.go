// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package business

import (
	"context"
	"sync"

	"github.com/DaneJoe001/ProjectTrans-sub001/store"
)

// memFileStore is an in-process FileStore fake for tests, avoiding real
// disk I/O.
type memFileStore struct {
	mu    sync.Mutex
	info  map[int64]store.FileInfo
	bytes map[int64][]byte
}

func newMemFileStore() *memFileStore {
	return &memFileStore{info: make(map[int64]store.FileInfo), bytes: make(map[int64][]byte)}
}

func (m *memFileStore) put(info store.FileInfo, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info[info.FileID] = info
	m.bytes[info.FileID] = data
}

func (m *memFileStore) Stat(_ context.Context, fileID int64) (store.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.info[fileID]
	if !ok {
		return store.FileInfo{}, ErrNotFound
	}
	return info, nil
}

func (m *memFileStore) ReadAt(fileID int64, offset int64, p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.bytes[fileID]
	if !ok {
		return 0, ErrNotFound
	}
	if offset >= int64(len(data)) {
		return 0, nil
	}
	n := copy(p, data[offset:])
	return n, nil
}

func (m *memFileStore) WriteAt(fileID int64, offset int64, p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data := m.bytes[fileID]
	end := offset + int64(len(p))
	if end > int64(len(data)) {
		grown := make([]byte, end)
		copy(grown, data)
		data = grown
	}
	copy(data[offset:end], p)
	m.bytes[fileID] = data
	return len(p), nil
}
