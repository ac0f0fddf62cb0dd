package async

import (
	"errors"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorEvent is the event name with unhandled-error semantics; see
// [EventBus.Emit].
const ErrorEvent = "error"

// A Listener is a callback registered on an [EventBus].
type Listener func(args ...any)

// SubscriptionID identifies a single listener registration on an [EventBus].
type SubscriptionID string

type busListener struct {
	id   SubscriptionID
	fn   Listener
	once bool
}

// An EventBus is a synchronous publish/subscribe registry mapping named
// events to ordered listener lists.
//
// Delivery is fully synchronous: [EventBus.Emit] does not return until every
// listener has run to completion (or panicked). Listeners for one event fire
// in registration order, at most once per emission.
// The bus itself never defers work; a listener that wants to run something
// after the current turn spawns it onto an [Executor] explicitly.
//
// An EventBus is not safe for concurrent use. Like a [Signal], it belongs to
// a single logical thread of control.
type EventBus struct {
	listeners    map[string][]*busListener
	maxListeners int
	warned       map[string]bool
	logger       *zap.Logger
	tracer       MetricsTracer
}

// NewEventBus creates a new [EventBus].
func NewEventBus(opts ...BusOption) *EventBus {
	b := &EventBus{
		listeners: make(map[string][]*busListener),
		warned:    make(map[string]bool),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// On appends fn to the listener list of name and returns the registration's
// [SubscriptionID].
//
// There is no upper bound on the number of listeners; crossing the threshold
// set by [EventBus.SetMaxListeners] only logs a warning.
func (b *EventBus) On(name string, fn Listener) SubscriptionID {
	return b.add(name, fn, false)
}

// Once is like [EventBus.On], but the listener is removed immediately before
// its first invocation, so it fires at most once.
func (b *EventBus) Once(name string, fn Listener) SubscriptionID {
	return b.add(name, fn, true)
}

func (b *EventBus) add(name string, fn Listener, once bool) SubscriptionID {
	if fn == nil {
		panic("async: nil Listener")
	}

	id := SubscriptionID(uuid.NewString())
	b.listeners[name] = append(b.listeners[name], &busListener{id: id, fn: fn, once: once})

	if t := b.tracer; t != nil {
		t.ListenerAdded(name)
	}

	if max := b.maxListeners; max > 0 && !b.warned[name] {
		if n := len(b.listeners[name]); n > max {
			b.warned[name] = true
			b.logger.Warn("possible listener leak",
				zap.String("event", name),
				zap.Int("count", n),
				zap.Int("max", max))
		}
	}

	return id
}

// Off removes the listener registered under id on name.
// It is a no-op if no such registration exists.
func (b *EventBus) Off(name string, id SubscriptionID) {
	s := b.listeners[name]
	for i, l := range s {
		if l.id == id {
			b.listeners[name] = slices.Delete(s, i, i+1)
			if t := b.tracer; t != nil {
				t.ListenerRemoved(name)
			}
			return
		}
	}
}

// Emit synchronously invokes every listener currently registered on name, in
// registration order, with args. It reports whether any listener existed.
//
// Emit iterates over a snapshot of the listener list: listeners added or
// removed during an emission do not affect that emission.
// A listener panic propagates to the Emit caller; the remaining listeners in
// that emission are skipped.
//
// Emitting [ErrorEvent] with zero "error" listeners panics with
// [*UnhandledErrorEvent] carrying the first error argument; every other
// unlistened event name just returns false.
func (b *EventBus) Emit(name string, args ...any) bool {
	snapshot := slices.Clone(b.listeners[name])

	if len(snapshot) == 0 {
		if name == ErrorEvent {
			panic(&UnhandledErrorEvent{Err: firstError(args)})
		}
		return false
	}

	if t := b.tracer; t != nil {
		t.EventEmitted(name)
	}

	for _, l := range snapshot {
		if l.once {
			b.Off(name, l.id)
		}
		l.fn(args...)
	}

	return true
}

// ListenerCount returns the number of listeners currently registered on
// name.
func (b *EventBus) ListenerCount(name string) int {
	return len(b.listeners[name])
}

// SetMaxListeners sets the per-event warning threshold.
// It is a caller-visible leak guard, never an enforced limit: registrations
// beyond n succeed, and the first one past the threshold logs a warning.
// Setting n to zero disables the warning.
func (b *EventBus) SetMaxListeners(n int) {
	if n < 0 {
		panic("async(EventBus): negative listener threshold")
	}
	b.maxListeners = n
	clear(b.warned)
}

func firstError(args []any) error {
	for _, a := range args {
		if err, ok := a.(error); ok {
			return err
		}
	}
	return errors.New("async: error event emitted without an error argument")
}
