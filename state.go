package async

// A State is a value-carrying [Event]: a [Signal] paired with a current value
// of type T.
//
// Unlike a [Promise], which settles at most once, a State can be updated any
// number of times; each update resumes the coroutines watching it.
// A coroutine that yields with co.Yield(s) observes the current value on
// every update in turn.
//
// A State must not be shared by more than one [Executor].
type State[T any] struct {
	Signal
	value T
}

// NewState creates a [State] holding v.
func NewState[T any](v T) *State[T] {
	return &State[T]{value: v}
}

// Get returns the current value of s.
//
// One should only call this method in a [Task] function.
func (s *State[T]) Get() T {
	return s.value
}

// Set replaces the current value of s and resumes any [Coroutine] watching s.
//
// One should only call this method in a [Task] function.
func (s *State[T]) Set(v T) {
	s.value = v
	s.Notify()
}

// Update replaces the current value of s with f applied to it and resumes
// any [Coroutine] watching s.
//
// One should only call this method in a [Task] function.
func (s *State[T]) Update(f func(v T) T) {
	s.value = f(s.value)
	s.Notify()
}
