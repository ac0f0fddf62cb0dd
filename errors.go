package async

import (
	"fmt"
	"strconv"
)

// InvalidStateError reports a driver operation performed on a [Handle] in a
// state that does not permit it, e.g. resuming a terminal task.
type InvalidStateError struct {
	Op    string
	State TaskState
}

func (e *InvalidStateError) Error() string {
	return "async: " + e.Op + " on " + e.State.String() + " task"
}

// UnhandledErrorEvent is the panic value raised by [EventBus.Emit] when the
// "error" event is emitted with no registered "error" listeners.
type UnhandledErrorEvent struct {
	Err error
}

func (e *UnhandledErrorEvent) Error() string {
	return fmt.Sprintf("async: unhandled error event: %v", e.Err)
}

func (e *UnhandledErrorEvent) Unwrap() error {
	return e.Err
}

// ChannelClosedError reports an operation on a closed [Channel].
type ChannelClosedError struct {
	Op string
}

func (e *ChannelClosedError) Error() string {
	return "async: " + e.Op + " on closed channel"
}

// BackpressureViolation reports a write made while a [Channel] in strict
// mode is signaling backpressure.
type BackpressureViolation struct {
	Len      int
	Capacity int
}

func (e *BackpressureViolation) Error() string {
	return "async: write while blocked (" +
		strconv.Itoa(e.Len) + "/" + strconv.Itoa(e.Capacity) + " buffered)"
}
