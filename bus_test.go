package async_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/asynclab/async"
)

func TestEmitOrder(t *testing.T) {
	b := async.NewEventBus()

	var order []string
	b.On("box", func(args ...any) { order = append(order, "L1") })
	b.On("box", func(args ...any) { order = append(order, "L2") })
	b.On("box", func(args ...any) { order = append(order, "L3") })

	require.True(t, b.Emit("box"))
	require.Equal(t, []string{"L1", "L2", "L3"}, order)
}

func TestEmitArgs(t *testing.T) {
	b := async.NewEventBus()

	var got []any
	b.On("box", func(args ...any) { got = args })

	b.Emit("box", 1, "two", 3.0)
	require.Equal(t, []any{1, "two", 3.0}, got)
}

func TestEmitUnlistened(t *testing.T) {
	b := async.NewEventBus()
	require.False(t, b.Emit("box"))
}

func TestOnce(t *testing.T) {
	b := async.NewEventBus()

	calls := 0
	remaining := -1
	b.Once("box", func(args ...any) {
		calls++
		// A once listener is removed immediately before its invocation.
		remaining = b.ListenerCount("box")
	})

	require.True(t, b.Emit("box"))
	require.False(t, b.Emit("box"))
	require.Equal(t, 1, calls)
	require.Equal(t, 0, remaining)
}

func TestOff(t *testing.T) {
	b := async.NewEventBus()

	var order []string
	b.On("box", func(args ...any) { order = append(order, "keep") })
	id := b.On("box", func(args ...any) { order = append(order, "drop") })

	require.Equal(t, 2, b.ListenerCount("box"))

	b.Off("box", id)
	b.Off("box", id) // No-op when already removed.
	b.Off("other", "unknown")

	require.Equal(t, 1, b.ListenerCount("box"))
	require.True(t, b.Emit("box"))
	require.Equal(t, []string{"keep"}, order)
}

func TestUnhandledErrorEvent(t *testing.T) {
	b := async.NewEventBus()

	boom := errors.New("boom")
	require.PanicsWithError(t, "async: unhandled error event: boom", func() {
		b.Emit(async.ErrorEvent, boom)
	})

	defer func() {
		var ue *async.UnhandledErrorEvent
		require.ErrorAs(t, recover().(error), &ue)
		require.ErrorIs(t, ue, boom)
	}()
	b.Emit("error", "context", boom)
}

func TestErrorEventWithListener(t *testing.T) {
	b := async.NewEventBus()

	var got error
	b.On(async.ErrorEvent, func(args ...any) { got = args[0].(error) })

	boom := errors.New("boom")
	require.NotPanics(t, func() {
		require.True(t, b.Emit(async.ErrorEvent, boom))
	})
	require.ErrorIs(t, got, boom)
}

func TestListenerPanicSkipsRest(t *testing.T) {
	b := async.NewEventBus()

	ran := false
	b.On("box", func(args ...any) { panic("L1") })
	b.On("box", func(args ...any) { ran = true })

	require.PanicsWithValue(t, "L1", func() { b.Emit("box") })
	require.False(t, ran, "listener after a panicking one still ran")
}

func TestReentrantEmit(t *testing.T) {
	b := async.NewEventBus()

	var order []string
	b.On("outer", func(args ...any) {
		order = append(order, "outer1")
		b.Emit("inner")
		// Registered mid-emission; must not fire during this emission.
		b.On("outer", func(args ...any) { order = append(order, "late") })
	})
	b.On("inner", func(args ...any) { order = append(order, "inner") })
	b.On("outer", func(args ...any) { order = append(order, "outer2") })

	b.Emit("outer")
	require.Equal(t, []string{"outer1", "inner", "outer2"}, order)
}

func TestMaxListenersWarn(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := async.NewEventBus(
		async.WithBusLogger(zap.New(core)),
		async.WithMaxListeners(2),
	)

	fn := func(args ...any) {}
	b.On("box", fn)
	b.On("box", fn)
	require.Equal(t, 0, logs.Len())

	b.On("box", fn)
	b.On("box", fn) // Warns once per event name, not per registration.
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	require.Equal(t, "possible listener leak", entry.Message)
	require.Equal(t, "box", entry.ContextMap()["event"])

	b.On("other", fn)
	b.On("other", fn)
	b.On("other", fn)
	require.Equal(t, 2, logs.Len())
}

type recordingTracer struct {
	emitted, added, removed int
}

func (r *recordingTracer) EventEmitted(string)    { r.emitted++ }
func (r *recordingTracer) ListenerAdded(string)   { r.added++ }
func (r *recordingTracer) ListenerRemoved(string) { r.removed++ }
func (r *recordingTracer) ItemsWritten(int)       {}
func (r *recordingTracer) ItemsRead(int)          {}
func (r *recordingTracer) BackpressureApplied()   {}
func (r *recordingTracer) BackpressureRelieved()  {}

func TestBusTracer(t *testing.T) {
	tracer := &recordingTracer{}
	b := async.NewEventBus(async.WithBusTracer(tracer))

	id := b.On("box", func(args ...any) {})
	b.Once("box", func(args ...any) {})
	b.Emit("box")
	b.Emit("unlistened")
	b.Off("box", id)

	require.Equal(t, 1, tracer.emitted)
	require.Equal(t, 2, tracer.added)
	require.Equal(t, 2, tracer.removed) // The once listener plus the Off call.
}

func TestPrometheusTracer(t *testing.T) {
	reg := prometheus.NewRegistry()
	b := async.NewEventBus(async.WithBusTracer(async.NewPrometheusTracer(reg)))

	b.On("box", func(args ...any) {})
	b.Emit("box")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["async_bus_events_emitted_total"])
	require.True(t, names["async_bus_listeners"])
}
