package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CoreMetrics records order-queue and sync activity. All methods are
// nil-safe so tests can pass a zero value.
type CoreMetrics struct {
	ordersSent   *prometheus.CounterVec
	sendFailures *prometheus.CounterVec
	queueDepth   prometheus.Gauge
	syncRuns     *prometheus.CounterVec
	syncUpserts  prometheus.Counter
	syncDuration prometheus.Histogram
}

// NewCoreMetrics registers the collectors on the provided registerer.
func NewCoreMetrics(reg prometheus.Registerer) *CoreMetrics {
	if reg == nil {
		return &CoreMetrics{}
	}
	ordersSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_sent_total",
		Help: "Orders confirmed by the remote API.",
	}, []string{"mode"})
	sendFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_send_failures_total",
		Help: "Order submissions that failed.",
	}, []string{"mode"})
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "order_queue_depth",
		Help: "Orders currently waiting in the local queue.",
	})
	syncRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "customer_sync_runs_total",
		Help: "Customer sync executions by result.",
	}, []string{"result"})
	syncUpserts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "customer_sync_upserts_total",
		Help: "Customer rows written by the sync engine.",
	})
	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "customer_sync_duration_seconds",
		Help:    "Duration of customer sync runs.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(ordersSent, sendFailures, queueDepth, syncRuns, syncUpserts, syncDuration)
	return &CoreMetrics{
		ordersSent:   ordersSent,
		sendFailures: sendFailures,
		queueDepth:   queueDepth,
		syncRuns:     syncRuns,
		syncUpserts:  syncUpserts,
		syncDuration: syncDuration,
	}
}

func (m *CoreMetrics) IncOrdersSent(mode string, count int) {
	if m == nil || m.ordersSent == nil {
		return
	}
	m.ordersSent.WithLabelValues(normalizeLabel(mode)).Add(float64(count))
}

func (m *CoreMetrics) IncSendFailure(mode string) {
	if m == nil || m.sendFailures == nil {
		return
	}
	m.sendFailures.WithLabelValues(normalizeLabel(mode)).Inc()
}

func (m *CoreMetrics) SetQueueDepth(depth int) {
	if m == nil || m.queueDepth == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

func (m *CoreMetrics) IncSyncRun(result string) {
	if m == nil || m.syncRuns == nil {
		return
	}
	m.syncRuns.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *CoreMetrics) AddSyncUpserts(count int) {
	if m == nil || m.syncUpserts == nil {
		return
	}
	m.syncUpserts.Add(float64(count))
}

func (m *CoreMetrics) ObserveSyncDuration(d time.Duration) {
	if m == nil || m.syncDuration == nil {
		return
	}
	m.syncDuration.Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
