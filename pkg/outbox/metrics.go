package outbox

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace, metricsSubsystem = "accounts", "outbox"

type metrics struct {
	enqueued   *prometheus.CounterVec
	dispatched *prometheus.CounterVec
	parked     *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	depth      *prometheus.GaugeVec
	leader     *prometheus.GaugeVec
}

var getMetrics = sync.OnceValue(func() *metrics {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: metricsSubsystem, Name: name, Help: help,
		}, labels)
	}
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Subsystem: metricsSubsystem, Name: name, Help: help,
		}, labels)
	}
	return &metrics{
		enqueued:   counter("enqueue_total", "Messages written to an outbox table.", "table", "topic"),
		dispatched: counter("dispatch_total", "Dispatch attempts by result.", "table", "topic", "result"),
		parked:     counter("dead_total", "Messages that used up their attempts.", "table", "topic"),
		latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "dispatch_latency_seconds",
			Help:      "Time spent in the dispatcher per message.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 12),
		}, []string{"table", "topic", "result"}),
		depth:  gauge("queue_depth", "Unpublished messages, split into pending and locked.", "table", "state"),
		leader: gauge("relay_leader", "1 while this process holds the relay lock for the table.", "table"),
	}
})

func (m *metrics) observeDispatch(table, topic string, err error, took time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.dispatched.WithLabelValues(table, topic, result).Inc()
	m.latency.WithLabelValues(table, topic, result).Observe(took.Seconds())
}

func (m *metrics) setLeader(table string, on bool) {
	v := 0.0
	if on {
		v = 1
	}
	m.leader.WithLabelValues(table).Set(v)
}
