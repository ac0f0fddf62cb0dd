package async_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/asynclab/async"
)

func TestSleep(t *testing.T) {
	var e async.Executor
	mock := clock.NewMock()

	done := false
	e.Spawn(async.Sleep(&e, mock, time.Second).Then(async.Do(func() { done = true })))
	e.Run()

	mock.Add(500 * time.Millisecond)
	e.Run()
	if done {
		t.Fatal("sleep ended early")
	}

	mock.Add(500 * time.Millisecond)
	e.Run()
	if !done {
		t.Fatal("sleep did not end")
	}
}

func TestSleepCancel(t *testing.T) {
	var e async.Executor
	mock := clock.NewMock()

	var parentSig async.Signal
	fired := false

	e.Spawn(func(co *async.Coroutine) async.Result {
		co.Spawn(async.Sleep(&e, mock, time.Second).Then(async.Do(func() { fired = true })))
		return co.Await(&parentSig).End()
	})
	e.Run()

	// Resuming the parent cancels the sleeping child.
	parentSig.Notify()
	e.Run()

	mock.Add(time.Second)
	e.Run()

	if fired {
		t.Fatal("canceled sleep still ran its continuation")
	}
}
