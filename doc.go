// Package async is a library for cooperative asynchronous programming.
//
// It is built from three independent primitives on top of a single-threaded
// [Executor]:
//
//   - [Handle], a suspendable task: a unit of computation that pauses at
//     explicit suspension points and resumes later with an externally
//     supplied value or error. A handle is driven manually, by calling
//     [Handle.Resume] and [Handle.Fail], or automatically, by awaiting a
//     [Promise] whose settlement resumes the task. Both are the same
//     suspension primitive; only the driver differs.
//
//   - [EventBus], a synchronous publish/subscribe registry mapping named
//     events to ordered listener lists, with delivery in registration order
//     and Node-style unhandled-"error" escalation.
//
//   - [Channel], a flow-controlled conduit with a bounded buffer and an
//     explicit backpressure signal that producers obey, composable with
//     [Channel.PipeTo] and [Transform].
//
// Concurrency is achieved by interleaving suspended coroutines on one
// executor, not by parallel execution. Suspension points occur only at
// explicit awaits inside a task and at backpressure-blocked writes inside a
// pipe loop; [EventBus.Emit] never suspends. Goroutines feed work in from
// the outside through [Executor.Spawn], which is the only safe entry point
// across the thread boundary.
//
// # Driving a task by hand
//
// An executor with no autorun function is driven synchronously: Start,
// Resume and Fail each run the queue until the task parks or terminates.
//
//	var e async.Executor
//	h := e.NewTask(func(co *async.Coroutine) async.Result {
//		return co.Suspend(1).Then(func(co *async.Coroutine) async.Result {
//			v, _ := co.Injected()
//			return co.Complete(v)
//		})
//	})
//	h.Start()      // {Suspended, 1}
//	h.Resume(100)  // {Completed, 100}
//
// # Reacting to events
//
// Coroutines spawned on an executor can watch any [Event] ([Signal],
// [State], [Promise], or a channel's Readable and Drained events) and are
// resumed, in watch order, whenever it notifies.
package async
