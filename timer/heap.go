// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package timer

import "time"

// task is one scheduled callback, one-shot or periodic. remaining == -1
// means infinite; remaining == 0 is not a valid steady state (the task
// self-cancels the moment it reaches zero).
type task struct {
	id        TaskID
	deadline  time.Time
	callback  func()
	period    time.Duration // zero for one-shot tasks
	remaining int64
	cancelled bool
	index     int // heap index, maintained by container/heap
}

// taskHeap is a min-heap ordered by deadline, giving the timer wheel
// O(log n) insert/pop instead of the O(n) scan an ordered multimap would
// need on every tick. This is an implementation choice within the contract
// spec.md §4.8 describes ("an ordered multimap deadline → callback"); the
// externally observable behavior is identical.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
