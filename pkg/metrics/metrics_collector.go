package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 指标收集器，nil 接收者上的调用均为空操作
type MetricsCollector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 业务操作指标
	actionTotal    *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec

	// 一致性相关指标
	fanoutFailures       prometheus.Counter
	fanoutRetries        *prometheus.CounterVec
	notificationsCreated prometheus.Counter
	orphanedBlobs        prometheus.Counter
	eventPublishFailures *prometheus.CounterVec

	// 缓存指标
	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec
}

// NewMetricsCollector 创建指标收集器，reg 为 nil 时使用默认注册表
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &MetricsCollector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		actionTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidhub_actions_total",
				Help: "Total number of engine actions by outcome",
			},
			[]string{"action", "outcome"},
		),

		actionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vidhub_action_duration_seconds",
				Help:    "Engine action duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),

		fanoutFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vidhub_fanout_failures_total",
				Help: "Notification fan-out failures after a successful publish",
			},
		),

		fanoutRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidhub_fanout_retries_total",
				Help: "Notification fan-out retry attempts by result",
			},
			[]string{"result"},
		),

		notificationsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vidhub_notifications_created_total",
				Help: "Notifications inserted by fan-out",
			},
		),

		orphanedBlobs: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vidhub_orphaned_blobs_total",
				Help: "Stored blobs left without a video row",
			},
		),

		eventPublishFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidhub_event_publish_failures_total",
				Help: "Domain events that could not be published",
			},
			[]string{"routing_key"},
		),

		cacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),

		cacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (mc *MetricsCollector) RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	mc.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAction 记录业务操作结果
func (mc *MetricsCollector) RecordAction(action, outcome string, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.actionTotal.WithLabelValues(action, outcome).Inc()
	mc.actionDuration.WithLabelValues(action).Observe(duration.Seconds())
}

func (mc *MetricsCollector) IncFanoutFailure() {
	if mc == nil {
		return
	}
	mc.fanoutFailures.Inc()
}

// RecordFanoutRetry result 取值 success | failed | dropped
func (mc *MetricsCollector) RecordFanoutRetry(result string) {
	if mc == nil {
		return
	}
	mc.fanoutRetries.WithLabelValues(result).Inc()
}

func (mc *MetricsCollector) AddNotifications(n int) {
	if mc == nil || n <= 0 {
		return
	}
	mc.notificationsCreated.Add(float64(n))
}

func (mc *MetricsCollector) AddOrphanedBlobs(n int) {
	if mc == nil || n <= 0 {
		return
	}
	mc.orphanedBlobs.Add(float64(n))
}

func (mc *MetricsCollector) IncEventPublishFailure(routingKey string) {
	if mc == nil {
		return
	}
	mc.eventPublishFailures.WithLabelValues(routingKey).Inc()
}

// RecordCacheHit 记录缓存命中
func (mc *MetricsCollector) RecordCacheHit(cacheType string) {
	if mc == nil {
		return
	}
	mc.cacheHitsTotal.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (mc *MetricsCollector) RecordCacheMiss(cacheType string) {
	if mc == nil {
		return
	}
	mc.cacheMissesTotal.WithLabelValues(cacheType).Inc()
}
