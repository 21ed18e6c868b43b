// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scheduler

import "github.com/DaneJoe001/ProjectTrans-sub001/store"

// splitBlocks divides [0, totalSize) into contiguous, non-overlapping
// BlockInfo specs of at most blockSize bytes each. The final block is
// shorter than blockSize whenever totalSize is not an exact multiple.
func splitBlocks(totalSize, blockSize int64) []store.BlockInfo {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if totalSize <= 0 {
		return nil
	}
	n := (totalSize + blockSize - 1) / blockSize
	out := make([]store.BlockInfo, 0, n)
	for offset := int64(0); offset < totalSize; offset += blockSize {
		size := blockSize
		if offset+size > totalSize {
			size = totalSize - offset
		}
		out = append(out, store.BlockInfo{Offset: offset, BlockSize: size, State: store.BlockStateWaiting})
	}
	return out
}
