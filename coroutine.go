package async

import "slices"

type action int

const (
	_ action = iota
	doYield
	doTransition
	doEnd
)

const (
	flagResumed = 1 << iota
	flagEnqueued
	flagEnded
	flagCanceled
	flagRecyclable
	flagRecycled
)

// A Coroutine is an execution of code, similar to a goroutine but cooperative
// and stackless.
//
// A coroutine is created with a function called [Task].
// A coroutine's job is to end the task.
// When an [Executor] spawns a coroutine with a task, it runs the coroutine by
// calling the task function with the coroutine as the argument.
// The return value determines whether to end the coroutine or to yield it
// so that it could resume later.
//
// In order for a coroutine to resume, the coroutine must watch at least one
// [Event] (e.g. [Signal], [State] and [Promise], etc.), when calling the task
// function.
// A notification of such an event resumes the coroutine.
// When a coroutine is resumed, the executor runs the coroutine again.
//
// A coroutine can also make a transition to work on another task according to
// the return value of the task function.
//
// A coroutine that drives a [Handle] additionally carries suspension state;
// see [Coroutine.Suspend], [Coroutine.Injected] and [Executor.NewTask].
type Coroutine struct {
	flag     uint8
	weight   Weight
	seq      uint64
	parent   *Coroutine
	executor *Executor
	task     Task
	handle   *Handle
	deps     map[Event]struct{}
	cleanups []Cleanup
}

// Weight is the type of weight for use when spawning a weighted coroutine.
// Coroutines with a greater weight run first.
type Weight int

func (co *Coroutine) init(e *Executor, t Task) *Coroutine {
	co.flag = flagResumed
	co.weight = 0
	co.parent = nil
	co.executor = e
	co.task = t
	co.handle = nil
	return co
}

func (co *Coroutine) recyclable() *Coroutine {
	co.flag |= flagRecyclable
	return co
}

func (co *Coroutine) withWeight(w Weight) *Coroutine {
	co.weight = w
	return co
}

func compare[Int intType](x, y Int) int {
	if x < y {
		return -1
	}
	if x > y {
		return +1
	}
	return 0
}

type intType interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

func (co *Coroutine) less(other *Coroutine) bool {
	if c := compare(co.weight, other.weight); c != 0 {
		return c == +1
	}
	return co.seq < other.seq
}

// Resume resumes co.
//
// Resume is safe for concurrent use.
func (co *Coroutine) Resume() {
	co.executor.resumeCoroutine(co)
}

func (co *Coroutine) run() (yielded bool) {
	var res Result

	for {
		co.clearDeps()
		co.clearCleanups()

		co.flag &^= flagResumed

		if h := co.handle; h != nil && h.state == Suspended {
			h.state = Running
		}

		res = co.task(co)

		if res.action == doYield && co.flag&flagCanceled != 0 {
			res = Result{action: doEnd}
		}

		if res.task != nil {
			co.task = res.task
		}

		if res.action != doTransition {
			break
		}
	}

	if res.action == doYield {
		if h := co.handle; h != nil && h.state == Running {
			h.park(res.catch)
		}
		return true
	}

	co.end()

	return false
}

func (co *Coroutine) end() {
	if co.flag&flagEnded != 0 {
		return
	}

	co.flag |= flagEnded

	co.clearDeps()
	co.clearCleanups()
	co.removeFromParent()

	if h := co.handle; h != nil {
		h.settle(Completed, h.result, nil)
	}

	if co.flag&flagEnqueued == 0 {
		co.executor.freeCoroutine(co)
	}
}

func (co *Coroutine) clearDeps() {
	deps := co.deps
	for d := range deps {
		delete(deps, d)
		d.removeListener(co)
	}
}

func (co *Coroutine) clearCleanups() {
	for len(co.cleanups) != 0 {
		cleanups := co.cleanups
		co.cleanups = nil
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i].Cleanup()
		}
	}
}

func (co *Coroutine) removeFromParent() {
	parent := co.parent
	if parent == nil {
		return
	}
	for i, c := range parent.cleanups {
		if c == (*childCoroutineCleanup)(co) {
			parent.cleanups = slices.Delete(parent.cleanups, i, i+1)
			break
		}
	}
}

type childCoroutineCleanup Coroutine

func (child *childCoroutineCleanup) Cleanup() {
	co := (*Coroutine)(child)
	co.flag |= flagCanceled
	co.end()
}

// Weight returns the weight of co.
func (co *Coroutine) Weight() Weight {
	return co.weight
}

// Parent returns the parent coroutine of co.
func (co *Coroutine) Parent() *Coroutine {
	return co.parent
}

// Executor returns the executor that spawned co.
func (co *Coroutine) Executor() *Executor {
	return co.executor
}

// Handle returns the task handle driven by co, or nil if co was spawned
// without one.
func (co *Coroutine) Handle() *Handle {
	return co.handle
}

// Ended reports whether co has already ended.
func (co *Coroutine) Ended() bool {
	return co.flag&flagEnded != 0
}

// Resumed reports whether co has been resumed.
func (co *Coroutine) Resumed() bool {
	return co.flag&flagResumed != 0
}

// Watch watches some events so that, when any of them notifies, co resumes.
func (co *Coroutine) Watch(ev ...Event) {
	if co.flag&(flagEnded|flagCanceled) != 0 {
		return
	}
	for _, d := range ev {
		deps := co.deps
		if deps == nil {
			deps = make(map[Event]struct{})
			co.deps = deps
		}
		deps[d] = struct{}{}
		d.addListener(co)
	}
}

// Cleanup represents any type that carries a Cleanup method.
// A Cleanup can be added to a coroutine in a [Task] function for making
// an effect some time later when the coroutine resumes or ends, or when
// the coroutine is making a transition to work on another [Task].
type Cleanup interface {
	Cleanup()
}

// A CleanupFunc is a func() that implements the [Cleanup] interface.
type CleanupFunc func()

// Cleanup implements the [Cleanup] interface.
func (f CleanupFunc) Cleanup() { f() }

// Cleanup adds something to clean up when co resumes or ends, or when co is
// making a transition to work on another [Task].
func (co *Coroutine) Cleanup(c Cleanup) {
	if co.Ended() {
		panic("async: coroutine has already ended")
	}
	if c == nil {
		return
	}
	co.cleanups = append(co.cleanups, c)
}

// CleanupFunc adds a function call when co resumes or ends, or when co is
// making a transition to work on another [Task].
func (co *Coroutine) CleanupFunc(f func()) {
	if co.Ended() {
		panic("async: coroutine has already ended")
	}
	if f == nil {
		return
	}
	co.cleanups = append(co.cleanups, CleanupFunc(f))
}

// Spawn creates a child coroutine with the same weight as co to work on t.
//
// Spawn runs t immediately.
//
// Child coroutines, if not yet ended, are canceled when the parent one
// resumes or ends, or when the parent one is making a transition to work on
// another [Task].
func (co *Coroutine) Spawn(t Task) {
	if co.Ended() {
		panic("async: coroutine has already ended")
	}

	child := co.executor.newCoroutine().init(co.executor, t).recyclable().withWeight(co.weight)
	child.parent = co

	if yielded := child.run(); yielded {
		co.cleanups = append(co.cleanups, (*childCoroutineCleanup)(child))
	}
}

// Result is the type of the return value of a [Task] function.
// A Result determines what next for a coroutine to do after running a task.
//
// A Result can be created by calling one of the following methods:
//   - [Coroutine.Await]: for creating a [PendingResult] that can be
//     transformed into a [Result] with one of its methods, which will then
//     cause the running coroutine to yield;
//   - [Coroutine.Yield]: for yielding a coroutine with additional events to
//     watch and, when resumed, reiterating the running task;
//   - [Coroutine.Suspend]: for suspending a task handle with an output value;
//   - [Coroutine.AwaitPromise]: for suspending until a [Promise] settles;
//   - [Coroutine.Transition]: for making a transition to work on another task;
//   - [Coroutine.End]: for ending the running task of a coroutine;
//   - [Coroutine.Complete] and [Coroutine.Fail]: for terminating a task
//     handle with a value or an error.
type Result struct {
	action action
	task   Task
	catch  Task
}

// PendingResult is an intermediate value that must be transformed into
// a [Result] with one of its methods before returning from a [Task].
type PendingResult struct {
	res     Result
	promise *Promise
}

// Reiterate returns a [Result] that will cause the running coroutine to yield
// and, when resumed, reiterate the running task.
func (pr PendingResult) Reiterate() Result {
	return pr.res
}

// Then returns a [Result] that will cause the running coroutine to yield and,
// when resumed, make a transition to work on t.
//
// For a pending result created by [Coroutine.AwaitPromise], settlement drives
// the enclosing task handle the way a manual driver would: a resolved promise
// injects its value and runs t; a rejected promise runs the
// [PendingResult.Catch] continuation if one is attached, and otherwise fails
// the task.
func (pr PendingResult) Then(t Task) Result {
	t = must(t)
	if p := pr.promise; p != nil {
		pr.res.task = func(co *Coroutine) Result {
			h := co.handle
			if h == nil {
				return co.Transition(t)
			}
			catch := h.catch
			h.catch = nil
			if p.err != nil {
				h.inValue, h.inErr = nil, p.err
				if catch != nil {
					return co.Transition(catch)
				}
				return co.Fail(p.err)
			}
			h.inValue, h.inErr = p.value, nil
			return co.Transition(t)
		}
		return pr.res
	}
	pr.res.task = t
	return pr.res
}

// End returns a [Result] that will cause the running coroutine to yield and,
// when resumed, end the running task.
func (pr PendingResult) End() Result {
	return pr.Then(End())
}

// Catch transforms pr into one with an error continuation.
// When an error is injected at this suspension point, either by the driver
// with [Handle.Fail] or by a rejected [Promise], onErr runs instead of
// failing the task; the injected error is available via [Coroutine.Injected].
func (pr PendingResult) Catch(onErr Task) PendingResult {
	pr.res.catch = must(onErr)
	return pr
}

// Await returns a [PendingResult] that can be transformed into a [Result]
// with one of its methods, which will then cause co to yield.
// Await also accepts additional events to watch.
func (co *Coroutine) Await(ev ...Event) PendingResult {
	if len(ev) != 0 {
		co.Watch(ev...)
	}
	return PendingResult{res: Result{action: doYield}}
}

// Yield returns a [Result] that will cause co to yield and, when co is
// resumed, reiterate the running task.
// Yield also accepts additional events to watch.
func (co *Coroutine) Yield(ev ...Event) Result {
	return co.Await(ev...).Reiterate()
}

// Transition returns a [Result] that will cause co to make a transition to
// work on t.
func (co *Coroutine) Transition(t Task) Result {
	return Result{action: doTransition, task: must(t)}
}

// End returns a [Result] that will cause co to end its current running task.
func (co *Coroutine) End() Result {
	return Result{action: doEnd}
}

// A Task is a piece of work that a coroutine is given to do when it is
// spawned.
// The return value of a task, a [Result], determines what next for a
// coroutine to do.
type Task func(co *Coroutine) Result

// Then returns a [Task] that first works on t, then next after t ends.
//
// To chain multiple tasks, use [Block] function.
func (t Task) Then(next Task) Task {
	next = must(next)
	return func(co *Coroutine) Result {
		res := t(co)
		switch res.action {
		case doEnd:
			return co.Transition(next)
		case doYield, doTransition:
			rt := res.task
			if rt == nil {
				rt = t
			}
			res.task = rt.Then(next)
			return res
		default:
			panic("async: internal error: unknown action")
		}
	}
}

// Do returns a [Task] that calls f, and then ends.
func Do(f func()) Task {
	return func(co *Coroutine) Result {
		f()
		return co.End()
	}
}

// End returns a [Task] that ends without doing anything.
func End() Task {
	return (*Coroutine).End
}

// Await returns a [Task] that awaits some events until any of them notifies,
// and then ends.
// If ev is empty, Await returns a [Task] that never ends.
func Await(ev ...Event) Task {
	if len(ev) == 0 {
		return func(co *Coroutine) Result {
			return co.Await().End()
		}
	}
	return func(co *Coroutine) Result {
		return co.Await(ev...).End()
	}
}

// Block returns a [Task] that runs each of the given tasks in sequence.
// When one task ends, Block runs another.
func Block(s ...Task) Task {
	switch len(s) {
	case 0:
		return End()
	case 1:
		return s[0]
	}
	t := s[0]
	for _, next := range s[1:] {
		t = t.Then(next)
	}
	return t
}

func must(t Task) Task {
	if t == nil {
		panic("async: nil Task")
	}
	return t
}
