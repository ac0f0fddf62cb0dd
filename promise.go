package async

// A Promise is a one-shot asynchronous result: it starts unsettled and
// settles exactly once with either a value or an error.
// Later settlement attempts are ignored.
//
// A Promise implements [Event]; settling it resumes every coroutine that is
// watching it, in the order they started watching.
// When several promises settle, the coroutines awaiting them resume in
// settlement order, not in the order the awaits were issued.
//
// Resolve and Reject are safe for concurrent use: they route through
// [Executor.Spawn], so the settlement itself always happens on the
// executor's thread.
type Promise struct {
	Signal
	executor *Executor
	settled  bool
	value    any
	err      error
}

// NewPromise creates a new unsettled [Promise] bound to e.
func NewPromise(e *Executor) *Promise {
	if e == nil {
		panic("async: NewPromise called with nil Executor")
	}
	return &Promise{executor: e}
}

// Resolve settles p with value v.
// It has no effect if p has already settled.
//
// Resolve is safe for concurrent use.
func (p *Promise) Resolve(v any) {
	p.executor.Spawn(Do(func() { p.settle(v, nil) }))
}

// Reject settles p with error err.
// It has no effect if p has already settled.
//
// Reject is safe for concurrent use.
func (p *Promise) Reject(err error) {
	if err == nil {
		panic("async: Reject called with nil error")
	}
	p.executor.Spawn(Do(func() { p.settle(nil, err) }))
}

func (p *Promise) settle(v any, err error) {
	if p.settled {
		return
	}
	p.settled = true
	p.value, p.err = v, err
	p.Notify()
}

// Settled reports whether p has settled.
//
// One should only call this method in a [Task] function.
func (p *Promise) Settled() bool {
	return p.settled
}

// Value returns the settled value of p, or nil if p is unsettled or
// rejected.
//
// One should only call this method in a [Task] function.
func (p *Promise) Value() any {
	return p.value
}

// Err returns the settled error of p, or nil if p is unsettled or resolved.
//
// One should only call this method in a [Task] function.
func (p *Promise) Err() error {
	return p.err
}

// AwaitPromise suspends co until p settles.
//
// The returned [PendingResult] must be transformed with [PendingResult.Then].
// Settlement then drives the enclosing task handle the way a manual driver
// would: a resolved promise injects its value (available via
// [Coroutine.Injected]) and runs the continuation; a rejected promise runs
// the [PendingResult.Catch] continuation or, if none is attached, fails the
// task.
// If p has already settled, co resumes on the executor's next turn.
//
// This is the automatic resumption mode of a task handle: the settlement of
// p, not the driver, is what resumes the task.
func (co *Coroutine) AwaitPromise(p *Promise) PendingResult {
	if p.settled {
		co.Resume()
	} else {
		co.Watch(p)
	}
	return PendingResult{res: Result{action: doYield}, promise: p}
}
