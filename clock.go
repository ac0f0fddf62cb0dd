package async

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Sleep returns a [Task] that awaits until d has elapsed on clk, and then
// ends.
//
// The timer fires on clk's goroutine and hands the notification over to e,
// so the task resumes on the executor's thread. Passing a mock clock makes
// the sleep deterministic in tests.
func Sleep(e *Executor, clk clock.Clock, d time.Duration) Task {
	return func(co *Coroutine) Result {
		var sig Signal
		tm := clk.AfterFunc(d, func() {
			e.Spawn(Do(sig.Notify))
		})
		co.CleanupFunc(func() { tm.Stop() })
		return co.Await(&sig).End()
	}
}

// AfterPromise returns a [Promise] bound to e that resolves with v once d
// has elapsed on clk.
func AfterPromise(e *Executor, clk clock.Clock, d time.Duration, v any) *Promise {
	p := NewPromise(e)
	clk.AfterFunc(d, func() {
		p.Resolve(v)
	})
	return p
}
