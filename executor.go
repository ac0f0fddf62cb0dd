package async

import "sync"

// An Executor is a [Coroutine] spawner, and a Coroutine runner.
//
// When a coroutine is spawned or resumed, it is added into an internal queue.
// The Run method then pops and runs each of them from the queue until
// the queue is emptied.
// It is done in a single-threaded manner.
// If one coroutine blocks, no other coroutines can run.
// The best practice is not to block.
//
// The internal queue is a run queue.
// Coroutines added in the queue are sorted by their weights, greatest first.
// Coroutines with the same weight are sorted by their arrival order (FIFO).
// Popping the queue removes the first coroutine.
//
// Manually calling the Run method is usually not desired.
// One would instead use the Autorun method to set up an autorun function to
// calling the Run method automatically whenever a coroutine is spawned or
// resumed.
// The Executor never calls the autorun function twice at the same time.
type Executor struct {
	mu      sync.Mutex
	rq      runqueue[*Coroutine]
	seq     uint64
	running bool
	autorun func()
	pool    sync.Pool
}

// Autorun sets up an autorun function to calling the Run method automatically
// whenever a coroutine is spawned or resumed.
//
// One must pass a function that calls the Run method.
//
// If f blocks, the Spawn method may block too.
// The best practice is not to block.
func (e *Executor) Autorun(f func()) {
	e.autorun = f
}

// Run pops and runs every coroutine in the queue until the queue is emptied.
//
// Run must not be called twice at the same time.
func (e *Executor) Run() {
	e.mu.Lock()
	e.running = true

	for !e.rq.Empty() {
		co := e.rq.Pop()
		e.runCoroutine(co)
	}

	e.running = false
	e.mu.Unlock()
}

// Spawn creates a coroutine to work on t.
//
// The coroutine is added in a queue. To run it, either call the Run method,
// or call the Autorun method to set up an autorun function beforehand.
//
// Spawn is safe for concurrent use.
func (e *Executor) Spawn(t Task) {
	e.SpawnWeighted(0, t)
}

// SpawnWeighted is like [Executor.Spawn] but assigns the coroutine a weight.
// Coroutines with a greater weight run first.
//
// SpawnWeighted is safe for concurrent use.
func (e *Executor) SpawnWeighted(w Weight, t Task) {
	co := e.newCoroutine().init(e, must(t)).recyclable().withWeight(w)
	e.resumeCoroutine(co)
}

func (e *Executor) resumeCoroutine(co *Coroutine) {
	var autorun func()

	e.mu.Lock()

	switch flag := co.flag; {
	case flag&flagRecycled != 0:
		e.mu.Unlock()
		panic("async: coroutine has been recycled")
	case flag&flagEnqueued != 0:
		co.flag = flag | flagResumed
	default:
		co.flag = flag | flagResumed | flagEnqueued
		co.seq = e.seq
		e.seq++
		e.rq.Push(co)
		if !e.running && e.autorun != nil {
			e.running = true
			autorun = e.autorun
		}
	}

	e.mu.Unlock()

	if autorun != nil {
		autorun()
	}
}

func (e *Executor) runCoroutine(co *Coroutine) {
	flag := co.flag
	flag &^= flagEnqueued
	co.flag = flag
	switch {
	case flag&flagEnded != 0:
		e.freeCoroutine(co)
	case flag&flagResumed != 0:
		e.mu.Unlock()
		co.run()
		e.mu.Lock()
	}
}

func (e *Executor) newCoroutine() *Coroutine {
	if co := e.pool.Get(); co != nil {
		return co.(*Coroutine)
	}
	return new(Coroutine)
}

func (e *Executor) freeCoroutine(co *Coroutine) {
	if co.flag&(flagRecyclable|flagRecycled) == flagRecyclable {
		co.flag |= flagRecycled
		co.parent = nil
		co.executor = nil
		co.task = nil
		co.handle = nil
		e.pool.Put(co)
	}
}
