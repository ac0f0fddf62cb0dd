package async

import (
	"io"
	"slices"

	"go.uber.org/zap"
)

type channelState int

const (
	chFlowing channelState = iota
	chBlocked
	chClosing
	chClosed
)

// A Channel is a flow-controlled conduit between a producer and a consumer.
//
// Items are buffered in FIFO order up to a capacity, the high-water mark.
// A single write may complete over the threshold, but the channel then
// signals backpressure to the producer until the buffer drains to the
// low-water mark, at which point one-shot drained callbacks fire and the
// channel flows again.
//
// A Channel moves through the states flowing, blocked, closing and closed:
// closing is entered by [Channel.Close] while the buffer is non-empty, and
// closed once the remaining items have been read out. Reads after
// close-and-drain return [io.EOF]; writes after close fail with
// [*ChannelClosedError].
//
// A Channel is not safe for concurrent use. Like a [Signal], it belongs to
// a single logical thread of control; cross-goroutine producers hand their
// items over via [Executor.Spawn].
type Channel[T any] struct {
	buf      []T
	capacity int
	low      int
	strict   bool
	state    channelState
	drained  []func()
	readable *Signal
	drainSig *Signal
	pull     func(max int) error
	srcEOF   bool
	logger   *zap.Logger
	tracer   MetricsTracer
}

// NewChannel creates a [Channel] with the given capacity (the backpressure
// threshold). Capacity must be positive.
func NewChannel[T any](capacity int, opts ...ChannelOption) *Channel[T] {
	if capacity <= 0 {
		panic("async(Channel): non-positive capacity")
	}

	cfg := channelConfig{lowWaterMark: -1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	low := cfg.lowWaterMark
	if low < 0 {
		low = capacity / 2
	}
	if low >= capacity {
		panic("async(Channel): low-water mark must be below capacity")
	}

	return &Channel[T]{
		capacity: capacity,
		low:      low,
		strict:   cfg.strict,
		readable: new(Signal),
		drainSig: new(Signal),
		logger:   cfg.logger,
		tracer:   cfg.tracer,
	}
}

// Write appends v to the buffer.
//
// The returned backpressure flag is true once the buffer length has reached
// capacity; the producer should then pause until [Channel.OnDrained] fires.
// The write that crosses the threshold itself completes.
//
// Writing to a closed channel fails with [*ChannelClosedError].
// In strict mode (see [WithStrictBackpressure]) writing while blocked fails
// with [*BackpressureViolation]; otherwise such writes are queued.
func (c *Channel[T]) Write(v T) (backpressure bool, err error) {
	switch c.state {
	case chClosing, chClosed:
		return false, &ChannelClosedError{Op: "write"}
	case chBlocked:
		if c.strict {
			return true, &BackpressureViolation{Len: len(c.buf), Capacity: c.capacity}
		}
	}

	c.buf = append(c.buf, v)
	if t := c.tracer; t != nil {
		t.ItemsWritten(1)
	}
	c.readable.Notify()

	if c.state == chFlowing && len(c.buf) >= c.capacity {
		c.state = chBlocked
		if t := c.tracer; t != nil {
			t.BackpressureApplied()
		}
		c.logger.Debug("backpressure applied",
			zap.Int("len", len(c.buf)),
			zap.Int("capacity", c.capacity))
	}

	return c.state == chBlocked, nil
}

// Read removes and returns up to max items in FIFO order.
//
// An open, empty channel returns an empty slice and a nil error.
// Once the channel is closed and its buffer drained, Read returns [io.EOF]
// as the end-of-stream marker.
func (c *Channel[T]) Read(max int) ([]T, error) {
	if max <= 0 {
		panic("async(Channel): non-positive read count")
	}

	if len(c.buf) == 0 && c.pull != nil && !c.srcEOF {
		if err := c.pull(max); err != nil {
			c.srcEOF = true
		}
	}

	n := min(max, len(c.buf))
	if n == 0 {
		if c.state == chClosing || c.state == chClosed || c.srcEOF {
			c.state = chClosed
			return nil, io.EOF
		}
		return nil, nil
	}

	out := make([]T, n)
	copy(out, c.buf)
	c.buf = slices.Delete(c.buf, 0, n)

	if t := c.tracer; t != nil {
		t.ItemsRead(n)
	}

	c.afterDrain()

	return out, nil
}

func (c *Channel[T]) afterDrain() {
	if c.state == chBlocked && len(c.buf) <= c.low {
		c.state = chFlowing
		if t := c.tracer; t != nil {
			t.BackpressureRelieved()
		}
		drained := c.drained
		c.drained = nil
		for _, fn := range drained {
			fn()
		}
		c.drainSig.Notify()
	}

	if c.state == chClosing && len(c.buf) == 0 {
		c.state = chClosed
		c.readable.Notify()
	}
}

// Close marks the channel terminal. Close is idempotent.
//
// Buffered items remain readable: the channel enters the closing state until
// the buffer empties, and only then reports end of stream.
//
// Close notifies both the Readable and Drained events, so a pipe parked on
// the channel's backpressure wakes up and observes the write failure.
func (c *Channel[T]) Close() {
	if c.state == chClosing || c.state == chClosed {
		return
	}
	if c.state == chBlocked {
		if t := c.tracer; t != nil {
			t.BackpressureRelieved()
		}
	}
	if len(c.buf) == 0 {
		c.state = chClosed
	} else {
		c.state = chClosing
	}
	c.readable.Notify()
	c.drainSig.Notify()
}

// OnDrained registers a one-shot callback fired the next time the buffer
// drains to the low-water mark after having signaled backpressure.
func (c *Channel[T]) OnDrained(fn func()) {
	if fn == nil {
		return
	}
	c.drained = append(c.drained, fn)
}

// Len returns the number of buffered items.
func (c *Channel[T]) Len() int {
	return len(c.buf)
}

// Cap returns the capacity (the backpressure threshold).
func (c *Channel[T]) Cap() int {
	return c.capacity
}

// Blocked reports whether the channel is signaling backpressure.
func (c *Channel[T]) Blocked() bool {
	return c.state == chBlocked
}

// Closed reports whether the channel has closed and drained.
func (c *Channel[T]) Closed() bool {
	return c.state == chClosed
}

// Readable returns the [Event] notified whenever an item is written or the
// channel is closed. Coroutines reading from the channel watch it to resume
// when there may be something to do.
func (c *Channel[T]) Readable() Event {
	return c.readable
}

// Drained returns the [Event] notified whenever the channel returns from
// blocked to flowing, and on [Channel.Close].
func (c *Channel[T]) Drained() Event {
	return c.drainSig
}

// PipeTo returns a [Task] that repeatedly reads from c and writes to dst,
// pausing whenever dst signals backpressure and resuming when it drains.
// When c reaches end of stream, the pipe closes dst and ends.
//
// On a write error the pipe stops and surfaces the error without closing c:
// if the task runs under a [Handle], the handle fails with the error;
// otherwise the error is logged on c's logger.
func (c *Channel[T]) PipeTo(dst *Channel[T]) Task {
	return func(co *Coroutine) Result {
		for !dst.Blocked() {
			items, err := c.Read(1)
			if err != nil {
				dst.Close()
				return co.End()
			}
			if len(items) == 0 {
				return co.Await(c.readable).Reiterate()
			}
			if _, werr := dst.Write(items[0]); werr != nil {
				if co.Handle() != nil {
					return co.Fail(werr)
				}
				c.logger.Error("pipe write failed", zap.Error(werr))
				return co.End()
			}
		}
		return co.Await(dst.drainSig).Reiterate()
	}
}

// Transform returns a channel that lazily applies fn to each item read
// through it.
//
// The returned channel pulls from src on demand: reading from it drains src,
// which relieves src's backpressure upstream, and a producer writing into
// src is paced by src's own backpressure signal. When src reaches end of
// stream, the returned channel does too, once its own buffer empties.
func Transform[T, U any](src *Channel[T], fn func(T) U, opts ...ChannelOption) *Channel[U] {
	if fn == nil {
		panic("async(Channel): nil transform function")
	}

	dst := NewChannel[U](src.capacity, opts...)
	dst.readable = src.readable
	dst.pull = func(max int) error {
		items, err := src.Read(max)
		for _, v := range items {
			dst.buf = append(dst.buf, fn(v))
		}
		return err
	}
	return dst
}
