// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddTaskForFiresOnce(t *testing.T) {
	w := New()
	defer w.Stop()

	var fired atomic.Int32
	done := make(chan struct{})
	w.AddTaskFor(20*time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	time.Sleep(20 * time.Millisecond)
	require.EqualValues(t, 1, fired.Load())
}

func TestPeriodicTaskFiresRemainingTimesThenStops(t *testing.T) {
	w := New()
	defer w.Stop()

	var fired atomic.Int32
	w.AddPeriodicTask(10*time.Millisecond, func() { fired.Add(1) }, 3)

	time.Sleep(200 * time.Millisecond)
	require.EqualValues(t, 3, fired.Load())
}

func TestCancelPeriodicTaskStopsFutureFires(t *testing.T) {
	w := New()
	defer w.Stop()

	var fired atomic.Int32
	id := w.AddPeriodicTask(10*time.Millisecond, func() { fired.Add(1) }, -1)

	time.Sleep(35 * time.Millisecond)
	require.True(t, w.CancelPeriodicTask(id))
	afterCancel := fired.Load()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, afterCancel, fired.Load())
}

func TestExecuteEnvironmentRunsCallback(t *testing.T) {
	ran := make(chan struct{}, 1)
	w := New(WithExecuteEnvironment(func(run func()) {
		run()
		ran <- struct{}{}
	}))
	defer w.Stop()

	w.AddTaskFor(5*time.Millisecond, func() {})
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("execute environment never invoked")
	}
}
