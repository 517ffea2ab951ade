package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 会战引擎与 HTTP 层指标；实现 service.OpObserver
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	lockWait   *prometheus.HistogramVec
	requests   *prometheus.CounterVec
	sseClients prometheus.Gauge
}

// NewMetrics 在独立的 Registry 上注册全部指标
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clanbattle_operations_total",
			Help: "engine operations by result code",
		}, []string{"op", "result"}),
		lockWait: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clanbattle_lock_wait_seconds",
			Help:    "time spent waiting for the clan write lock",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clanbattle_http_requests_total",
			Help: "http api requests by route and status",
		}, []string{"route", "status"}),
		sseClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "clanbattle_sse_clients",
			Help: "connected event stream clients",
		}),
	}
}

// ObserveOp 记录一次引擎操作结果
func (m *Metrics) ObserveOp(op, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// ObserveLockWait 记录公会锁等待时长
func (m *Metrics) ObserveLockWait(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveRequest 记录一次 HTTP 请求
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, http.StatusText(status)).Inc()
}

// SSEConnected / SSEDisconnected 维护事件流连接数
func (m *Metrics) SSEConnected() {
	if m != nil {
		m.sseClients.Inc()
	}
}

func (m *Metrics) SSEDisconnected() {
	if m != nil {
		m.sseClients.Dec()
	}
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 底层注册表（测试用）
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
