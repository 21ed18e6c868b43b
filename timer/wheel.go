// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package timer implements the single-threaded monotonic deadline scheduler
// used for request timeouts (transport), with periodic tasks available to
// any caller. It is grounded on original_source's TimerManager
// (danejoe/concurrent/timer/timer_manager.hpp: steady_clock deadlines, an
// injectable execute environment, self-cancelling periodic tasks) and on
// mjnovice-aistore's hk.Reg register/fire/reschedule behavior, generalized
// from hk's fixed named-callback registry to arbitrary per-call deadlines.
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// TaskID identifies a scheduled task, returned by AddPeriodicTask so callers
// can later CancelPeriodicTask.
type TaskID uint64

// ExecuteEnvironment runs a fired callback. The default runs it directly on
// the timer goroutine; callers that need callbacks dispatched elsewhere
// (a GUI thread, a worker pool) inject one via WithExecuteEnvironment.
type ExecuteEnvironment func(run func())

// Options configures a Wheel.
type Options struct {
	ExecuteEnvironment ExecuteEnvironment
}

// Option configures a Wheel.
type Option func(*Options)

// WithExecuteEnvironment injects a custom callback execution environment.
func WithExecuteEnvironment(env ExecuteEnvironment) Option {
	return func(o *Options) { o.ExecuteEnvironment = env }
}

// Wheel is a single dedicated goroutine driving one-shot and periodic
// deadlines. Callbacks fire no earlier than their deadline; the next fire of
// a periodic task is scheduled only once its previous execution completes.
type Wheel struct {
	mu      sync.Mutex
	heap    taskHeap
	tasks   map[TaskID]*task
	nextID  uint64
	execEnv ExecuteEnvironment

	wakeCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// New constructs and starts a Wheel.
func New(opts ...Option) *Wheel {
	o := Options{}
	for _, fn := range opts {
		fn(&o)
	}
	w := &Wheel{
		tasks:   make(map[TaskID]*task),
		execEnv: o.ExecuteEnvironment,
		wakeCh:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go w.run()
	return w
}

// Stop halts the timer goroutine. Already-ready callbacks that were
// dequeued before Stop was observed still run to completion.
func (w *Wheel) Stop() {
	w.once.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

func (w *Wheel) wake() {
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}

// AddTaskUntil schedules a one-shot callback to fire at deadline.
func (w *Wheel) AddTaskUntil(deadline time.Time, callback func()) TaskID {
	return w.add(deadline, callback, 0, 0)
}

// AddTaskFor schedules a one-shot callback to fire after d elapses.
func (w *Wheel) AddTaskFor(d time.Duration, callback func()) TaskID {
	return w.AddTaskUntil(time.Now().Add(d), callback)
}

// AddPeriodicTask schedules callback to fire every period, remaining times.
// remaining == -1 means infinite; each fire decrements remaining, and the
// task self-cancels once it reaches zero.
func (w *Wheel) AddPeriodicTask(period time.Duration, callback func(), remaining int64) TaskID {
	return w.add(time.Now().Add(period), callback, period, remaining)
}

func (w *Wheel) add(deadline time.Time, callback func(), period time.Duration, remaining int64) TaskID {
	w.mu.Lock()
	w.nextID++
	id := TaskID(w.nextID)
	t := &task{id: id, deadline: deadline, callback: callback, period: period, remaining: remaining}
	heap.Push(&w.heap, t)
	w.tasks[id] = t
	w.mu.Unlock()
	w.wake()
	return id
}

// CancelPeriodicTask removes a pending (not yet fired) task. A fire already
// dequeued by the timer goroutine still runs to completion; this only
// prevents a future scheduling of that task.
func (w *Wheel) CancelPeriodicTask(id TaskID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.tasks[id]
	if !ok {
		return false
	}
	t.cancelled = true
	delete(w.tasks, id)
	if t.index >= 0 {
		heap.Remove(&w.heap, t.index)
	}
	return true
}

func (w *Wheel) run() {
	defer close(w.doneCh)
	for {
		w.mu.Lock()
		if w.heap.Len() == 0 {
			w.mu.Unlock()
			select {
			case <-w.wakeCh:
				continue
			case <-w.stopCh:
				return
			}
		}

		now := time.Now()
		next := w.heap[0].deadline
		if next.After(now) {
			wait := next.Sub(now)
			w.mu.Unlock()
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-w.wakeCh:
				timer.Stop()
			case <-w.stopCh:
				timer.Stop()
				return
			}
			continue
		}

		var ready []*task
		for w.heap.Len() > 0 && !w.heap[0].deadline.After(now) {
			t := heap.Pop(&w.heap).(*task)
			delete(w.tasks, t.id)
			ready = append(ready, t)
		}
		w.mu.Unlock()

		for _, t := range ready {
			w.fire(t)
		}
	}
}

func (w *Wheel) fire(t *task) {
	run := t.callback
	if w.execEnv != nil {
		w.execEnv(run)
	} else {
		run()
	}

	if t.period <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if t.cancelled {
		return
	}
	if t.remaining > 0 {
		t.remaining--
		if t.remaining == 0 {
			return
		}
	}
	t.deadline = time.Now().Add(t.period)
	heap.Push(&w.heap, t)
	w.tasks[t.id] = t
	w.wake()
}
