package async

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// A MetricsTracer observes bus and channel activity.
// All methods are called synchronously on the owning component's thread and
// must not block.
type MetricsTracer interface {
	// EventEmitted is called once per emission that had listeners.
	EventEmitted(name string)
	// ListenerAdded is called when a listener is registered.
	ListenerAdded(name string)
	// ListenerRemoved is called when a listener is removed, including the
	// removal of a once listener before its invocation.
	ListenerRemoved(name string)
	// ItemsWritten is called after items are appended to a channel buffer.
	ItemsWritten(n int)
	// ItemsRead is called after items are removed from a channel buffer.
	ItemsRead(n int)
	// BackpressureApplied is called when a channel enters the blocked state.
	BackpressureApplied()
	// BackpressureRelieved is called when a channel drains back to the
	// flowing state.
	BackpressureRelieved()
}

type prometheusTracer struct {
	emitted   *prometheus.CounterVec
	listeners *prometheus.GaugeVec
	written   prometheus.Counter
	read      prometheus.Counter
	episodes  prometheus.Counter
	blocked   prometheus.Gauge
}

// NewPrometheusTracer returns a [MetricsTracer] that registers its
// collectors with reg.
func NewPrometheusTracer(reg prometheus.Registerer) MetricsTracer {
	f := promauto.With(reg)
	return &prometheusTracer{
		emitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "async",
			Subsystem: "bus",
			Name:      "events_emitted_total",
			Help:      "Events emitted with at least one listener, by event name.",
		}, []string{"event"}),
		listeners: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "async",
			Subsystem: "bus",
			Name:      "listeners",
			Help:      "Currently registered listeners, by event name.",
		}, []string{"event"}),
		written: f.NewCounter(prometheus.CounterOpts{
			Namespace: "async",
			Subsystem: "channel",
			Name:      "items_written_total",
			Help:      "Items written into channel buffers.",
		}),
		read: f.NewCounter(prometheus.CounterOpts{
			Namespace: "async",
			Subsystem: "channel",
			Name:      "items_read_total",
			Help:      "Items read out of channel buffers.",
		}),
		episodes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "async",
			Subsystem: "channel",
			Name:      "backpressure_episodes_total",
			Help:      "Times a channel entered the blocked state.",
		}),
		blocked: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "async",
			Subsystem: "channel",
			Name:      "blocked",
			Help:      "Channels currently signaling backpressure.",
		}),
	}
}

func (t *prometheusTracer) EventEmitted(name string) {
	t.emitted.WithLabelValues(name).Inc()
}

func (t *prometheusTracer) ListenerAdded(name string) {
	t.listeners.WithLabelValues(name).Inc()
}

func (t *prometheusTracer) ListenerRemoved(name string) {
	t.listeners.WithLabelValues(name).Dec()
}

func (t *prometheusTracer) ItemsWritten(n int) {
	t.written.Add(float64(n))
}

func (t *prometheusTracer) ItemsRead(n int) {
	t.read.Add(float64(n))
}

func (t *prometheusTracer) BackpressureApplied() {
	t.episodes.Inc()
	t.blocked.Inc()
}

func (t *prometheusTracer) BackpressureRelieved() {
	t.blocked.Dec()
}
