package async_test

import (
	"sync"
	"testing"

	"github.com/asynclab/async"
)

func TestExecutorOrdering(t *testing.T) {
	var e async.Executor

	var order []string

	e.Spawn(async.Do(func() { order = append(order, "a") }))
	e.Spawn(async.Do(func() { order = append(order, "b") }))
	e.SpawnWeighted(1, async.Do(func() { order = append(order, "c") }))
	e.SpawnWeighted(1, async.Do(func() { order = append(order, "d") }))

	e.Run()

	if got, want := len(order), 4; got != want {
		t.Fatalf("ran %d coroutines, want %d", got, want)
	}
	for i, want := range []string{"c", "d", "a", "b"} {
		if order[i] != want {
			t.Fatalf("order = %v, want [c d a b]", order)
		}
	}
}

func TestExecutorFanIn(t *testing.T) {
	var wg sync.WaitGroup // For keeping track of goroutines.

	var e async.Executor

	e.Autorun(func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Run()
		}()
	})

	var mu sync.Mutex
	total := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Spawn(async.Do(func() {
				// Runs single-threaded; still guard total for the check below.
				mu.Lock()
				total++
				mu.Unlock()
			}))
		}()
	}

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if total != 100 {
		t.Fatalf("total = %d, want 100", total)
	}
}

func TestSignalOrder(t *testing.T) {
	var e async.Executor

	var sig async.Signal
	var order []int

	watcher := func(i int) async.Task {
		return async.Await(&sig).Then(async.Do(func() { order = append(order, i) }))
	}

	e.Spawn(watcher(1))
	e.Spawn(watcher(2))
	e.Spawn(watcher(3))
	e.Run()

	sig.Notify()
	e.Run()

	for i, want := range []int{1, 2, 3} {
		if i >= len(order) || order[i] != want {
			t.Fatalf("order = %v, want [1 2 3]", order)
		}
	}
}

func TestChildCancel(t *testing.T) {
	var e async.Executor

	var sig, parentSig async.Signal
	fired := false

	e.Spawn(func(co *async.Coroutine) async.Result {
		co.Spawn(async.Await(&sig).Then(async.Do(func() { fired = true })))
		return co.Await(&parentSig).End()
	})
	e.Run()

	parentSig.Notify() // Resuming the parent cancels the child.
	e.Run()

	sig.Notify()
	e.Run()

	if fired {
		t.Fatal("canceled child coroutine still ran")
	}
}

func TestStateWatch(t *testing.T) {
	var e async.Executor

	s := async.NewState(1)
	var seen []int

	e.Spawn(func(co *async.Coroutine) async.Result {
		seen = append(seen, s.Get())
		return co.Yield(s)
	})
	e.Run()

	s.Set(2)
	e.Run()
	s.Set(3)
	e.Run()

	for i, want := range []int{1, 2, 3} {
		if i >= len(seen) || seen[i] != want {
			t.Fatalf("seen = %v, want [1 2 3]", seen)
		}
	}
}

func TestWaitGroup(t *testing.T) {
	var e async.Executor

	var wg async.WaitGroup
	wg.Add(2)

	done := false
	e.Spawn(wg.Await().Then(async.Do(func() { done = true })))
	e.Run()

	wg.Done()
	e.Run()
	if done {
		t.Fatal("WaitGroup awaited task ran early")
	}

	wg.Done()
	e.Run()
	if !done {
		t.Fatal("WaitGroup awaited task did not run")
	}
	if wg.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", wg.Count())
	}
}

func TestBlock(t *testing.T) {
	var e async.Executor

	var order []int
	step := func(i int) async.Task {
		return async.Do(func() { order = append(order, i) })
	}

	e.Spawn(async.Block(step(1), step(2), step(3)))
	e.Run()

	for i, want := range []int{1, 2, 3} {
		if i >= len(order) || order[i] != want {
			t.Fatalf("order = %v, want [1 2 3]", order)
		}
	}
}
