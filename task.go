package async

// TaskState is the lifecycle state of a [Handle].
type TaskState int32

const (
	// Created is the state of a handle before [Handle.Start].
	Created TaskState = iota
	// Suspended means the task is parked at a suspension point, awaiting
	// a value or an error from its driver or from a settling [Promise].
	Suspended
	// Running means a driver call is currently executing the task body.
	Running
	// Completed means the task terminated with a value.
	Completed
	// Failed means the task terminated with an error.
	Failed
)

func (s TaskState) String() string {
	switch s {
	case Created:
		return "Created"
	case Suspended:
		return "Suspended"
	case Running:
		return "Running"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether s is [Completed] or [Failed].
func (s TaskState) Terminal() bool {
	return s == Completed || s == Failed
}

// Outcome is the observable result of a driver call on a [Handle].
//
// When State is [Suspended], Output carries the value the task yielded at
// its suspension point.
// When State is [Completed], Output carries the task's final value.
// When State is [Failed], Output is nil; the error is on [Handle.Err].
type Outcome struct {
	State  TaskState
	Output any
}

// A Handle is a suspendable task: a unit of computation that pauses at
// suspension points and resumes later with an externally supplied value or
// error.
//
// The task body is an ordinary [Task] function; it marks suspension points
// with [Coroutine.Suspend] or [Coroutine.AwaitPromise] and terminates with
// [Coroutine.Complete] or [Coroutine.Fail].
// A body that ends without either completes with a nil value.
//
// A handle is driven either manually, by calling [Handle.Resume] and
// [Handle.Fail] between suspension points, or automatically, by awaiting
// a [Promise] whose settlement resumes the task through the executor.
// Both modes use the same suspension primitive; they differ only in who
// drives the resumption.
//
// There is no implicit cancellation. A driver that wants to cancel a
// suspended task injects an error with [Handle.Fail].
//
// A Handle must be driven from a single goroutine.
type Handle struct {
	e       *Executor
	co      *Coroutine
	state   TaskState
	output  any
	result  any
	err     error
	inValue any
	inErr   error
	catch   Task
}

// NewTask creates a [Handle] for body in the [Created] state.
// The body does not run until [Handle.Start] is called.
func (e *Executor) NewTask(body Task) *Handle {
	h := &Handle{e: e, state: Created}
	co := e.newCoroutine().init(e, must(body))
	co.handle = h
	h.co = co
	return h
}

// State returns the current lifecycle state of h.
func (h *Handle) State() TaskState {
	return h.state
}

// Output returns the value yielded at the last suspension point.
func (h *Handle) Output() any {
	return h.output
}

// Result returns the final value of a [Completed] task.
func (h *Handle) Result() any {
	return h.result
}

// Err returns the error of a [Failed] task.
func (h *Handle) Err() error {
	return h.err
}

// Start begins execution of the task body and runs it up to its first
// suspension point or termination.
//
// Start fails with [InvalidStateError] unless h is in the [Created] state;
// the first driver call is always Start, never [Handle.Resume].
func (h *Handle) Start() (Outcome, error) {
	if h.state != Created {
		return h.outcome(), &InvalidStateError{Op: "Start", State: h.state}
	}
	h.state = Running
	h.drive()
	return h.outcome(), nil
}

// Resume injects v as the result of the pending suspension point and runs
// the task until its next suspension point or termination.
//
// Resuming with a value the task body does not inspect is permitted; the
// value is ignored.
//
// Resume fails with [InvalidStateError] if h is not [Suspended].
func (h *Handle) Resume(v any) (Outcome, error) {
	if h.state != Suspended {
		return h.outcome(), &InvalidStateError{Op: "Resume", State: h.state}
	}
	h.inValue, h.inErr = v, nil
	h.catch = nil
	h.state = Running
	h.drive()
	return h.outcome(), nil
}

// Fail injects err at the pending suspension point.
//
// If the suspension point carries a Catch continuation (see
// [PendingResult.Catch]), that continuation runs with the injected error
// available via [Coroutine.Injected]; otherwise the task transitions to
// [Failed] with err.
//
// Fail fails with [InvalidStateError] if h is not [Suspended].
func (h *Handle) Fail(err error) (Outcome, error) {
	if err == nil {
		panic("async: Fail called with nil error")
	}
	if h.state != Suspended {
		return h.outcome(), &InvalidStateError{Op: "Fail", State: h.state}
	}
	catch := h.catch
	if catch == nil {
		h.settle(Failed, nil, err)
		h.co.flag |= flagCanceled
		h.co.end()
		return h.outcome(), nil
	}
	h.inValue, h.inErr = nil, err
	h.catch = nil
	h.co.task = catch
	h.state = Running
	h.drive()
	return h.outcome(), nil
}

func (h *Handle) drive() {
	h.e.resumeCoroutine(h.co)
	if h.e.autorun == nil {
		h.e.Run()
	}
}

func (h *Handle) park(catch Task) {
	h.state = Suspended
	h.catch = catch
}

func (h *Handle) settle(state TaskState, v any, err error) {
	if h.state.Terminal() {
		return
	}
	h.state = state
	h.result, h.err = v, err
}

func (h *Handle) outcome() Outcome {
	switch h.state {
	case Completed:
		return Outcome{State: Completed, Output: h.result}
	case Failed:
		return Outcome{State: Failed}
	default:
		return Outcome{State: h.state, Output: h.output}
	}
}

// Suspend marks a suspension point that yields output to the driver of the
// enclosing task handle.
// The driver observes {Suspended, output} and later injects a value with
// [Handle.Resume] or an error with [Handle.Fail].
//
// Suspend panics if co does not drive a task handle.
func (co *Coroutine) Suspend(output any) PendingResult {
	h := co.handle
	if h == nil {
		panic("async: Suspend requires a task handle")
	}
	h.output = output
	return PendingResult{res: Result{action: doYield}}
}

// Injected returns the value or error injected at the last suspension point,
// either by the driver ([Handle.Resume], [Handle.Fail]) or by a settled
// [Promise].
//
// Injected returns zero values if co does not drive a task handle.
func (co *Coroutine) Injected() (any, error) {
	h := co.handle
	if h == nil {
		return nil, nil
	}
	return h.inValue, h.inErr
}

// Complete returns a [Result] that terminates the enclosing task handle in
// the [Completed] state with value v.
//
// Complete panics if co does not drive a task handle.
func (co *Coroutine) Complete(v any) Result {
	h := co.handle
	if h == nil {
		panic("async: Complete requires a task handle")
	}
	h.settle(Completed, v, nil)
	return Result{action: doEnd}
}

// Fail returns a [Result] that terminates the enclosing task handle in the
// [Failed] state with err.
//
// Fail panics if co does not drive a task handle, or if err is nil.
func (co *Coroutine) Fail(err error) Result {
	h := co.handle
	if h == nil {
		panic("async: Fail requires a task handle")
	}
	if err == nil {
		panic("async: Fail called with nil error")
	}
	h.settle(Failed, nil, err)
	return Result{action: doEnd}
}
