package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics: счётчики предметной области и HTTP.
type Metrics struct {
	ordersCreated  *prometheus.CounterVec
	ordersDeleted  prometheus.Counter
	reversalFailed prometheus.Counter
	logins         *prometheus.CounterVec
	auditFailures  prometheus.Counter
	httpDuration   *prometheus.HistogramVec
}

// New регистрирует метрики в reg. С nil-регистратором все методы ничего не делают.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_orders_created_total",
			Help: "Created orders by kind (normal, reversal).",
		}, []string{"kind"}),
		ordersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_orders_deleted_total",
			Help: "Deleted orders.",
		}),
		reversalFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_reversal_mark_failures_total",
			Help: "Reversals whose original order could not be marked.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_audit_write_failures_total",
			Help: "Operation log entries that failed to persist.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billing_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.ordersCreated, m.ordersDeleted, m.reversalFailed, m.logins, m.auditFailures, m.httpDuration)
	return m
}

func (m *Metrics) OrderCreated(reversal bool) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	kind := "normal"
	if reversal {
		kind = "reversal"
	}
	m.ordersCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) OrderDeleted() {
	if m == nil || m.ordersDeleted == nil {
		return
	}
	m.ordersDeleted.Inc()
}

func (m *Metrics) ReversalMarkFailed() {
	if m == nil || m.reversalFailed == nil {
		return
	}
	m.reversalFailed.Inc()
}

func (m *Metrics) Login(result string) {
	if m == nil || m.logins == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) AuditFailed() {
	if m == nil || m.auditFailures == nil {
		return
	}
	m.auditFailures.Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil || m.httpDuration == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
