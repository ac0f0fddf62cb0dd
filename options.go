package async

import "go.uber.org/zap"

// A BusOption configures an [EventBus].
type BusOption func(*EventBus)

// WithBusLogger sets the logger an [EventBus] writes warnings to.
// The default is a no-op logger.
func WithBusLogger(l *zap.Logger) BusOption {
	return func(b *EventBus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithBusTracer sets the [MetricsTracer] an [EventBus] reports to.
func WithBusTracer(t MetricsTracer) BusOption {
	return func(b *EventBus) {
		b.tracer = t
	}
}

// WithMaxListeners sets the initial per-event warning threshold; see
// [EventBus.SetMaxListeners].
func WithMaxListeners(n int) BusOption {
	return func(b *EventBus) {
		b.SetMaxListeners(n)
	}
}

type channelConfig struct {
	lowWaterMark int
	strict       bool
	logger       *zap.Logger
	tracer       MetricsTracer
}

// A ChannelOption configures a [Channel].
type ChannelOption func(*channelConfig)

// WithLowWaterMark sets the buffer length at or below which a blocked
// channel returns to the flowing state and fires its drained callbacks.
// The default is half the capacity.
func WithLowWaterMark(n int) ChannelOption {
	return func(c *channelConfig) {
		c.lowWaterMark = n
	}
}

// WithStrictBackpressure makes [Channel.Write] reject writes made while the
// channel is signaling backpressure with [*BackpressureViolation].
// Without this option such writes are queued.
func WithStrictBackpressure() ChannelOption {
	return func(c *channelConfig) {
		c.strict = true
	}
}

// WithChannelLogger sets the logger a [Channel] writes to.
// The default is a no-op logger.
func WithChannelLogger(l *zap.Logger) ChannelOption {
	return func(c *channelConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithChannelTracer sets the [MetricsTracer] a [Channel] reports to.
func WithChannelTracer(t MetricsTracer) ChannelOption {
	return func(c *channelConfig) {
		c.tracer = t
	}
}
