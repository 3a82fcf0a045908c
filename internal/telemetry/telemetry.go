package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "insights"

// Metrics 服务自身的 Prometheus 指标。
// 所有方法允许 nil 接收者，便于在测试中省略。
type Metrics struct {
	registry *prometheus.Registry

	UpstreamAttempts *prometheus.CounterVec   // outcome
	UpstreamRetries  prometheus.Counter       //
	UpstreamDuration *prometheus.HistogramVec // outcome
	ProxyRequests    *prometheus.CounterVec   // target, outcome
	HTTPRequests     *prometheus.CounterVec   // route, code
}

// New 创建并注册指标
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		UpstreamAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "attempts_total",
			Help:      "Upstream analytics query attempts by outcome.",
		}, []string{"outcome"}),
		UpstreamRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Upstream analytics query retries.",
		}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of a single upstream query attempt.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),
		ProxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "Forwarded ingestion requests by target and outcome.",
		}, []string{"target", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by matched route and status code.",
		}, []string{"route", "code"}),
	}

	registry.MustRegister(
		m.UpstreamAttempts,
		m.UpstreamRetries,
		m.UpstreamDuration,
		m.ProxyRequests,
		m.HTTPRequests,
	)
	return m
}

// RegisterLimiter 暴露上游并发槽位的占用和排队数量
func (m *Metrics) RegisterLimiter(running, waiting func() float64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "in_flight",
			Help:      "Upstream queries currently holding a concurrency slot.",
		}, running),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "queued",
			Help:      "Upstream queries waiting for a concurrency slot.",
		}, waiting),
	)
}

// ObserveUpstream 记录一次上游查询尝试
func (m *Metrics) ObserveUpstream(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamAttempts.WithLabelValues(outcome).Inc()
	m.UpstreamDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// IncRetry 记录一次重试
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.UpstreamRetries.Inc()
}

// ObserveProxy 记录一次转发
func (m *Metrics) ObserveProxy(target, outcome string) {
	if m == nil {
		return
	}
	m.ProxyRequests.WithLabelValues(target, outcome).Inc()
}

// ObserveHTTP 记录一次接口请求
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry 指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
