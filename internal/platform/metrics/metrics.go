package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once 保证指标只注册一次，重复注册同名指标 prometheus 会直接 panic。
	once sync.Once

	// HTTPRequestsTotal：累计请求数（Counter）。
	//
	// labels：
	// - method：HTTP 方法
	// - route：路由模板（用 pattern，不要用真实 path，否则会产生无限 label）
	// - status：HTTP 状态码字符串，例如 "200"/"401"/"429"
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "HTTP请求的总数",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDurationSeconds：请求耗时分布（Histogram），用来算 P95/P99。
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPInflightRequests：当前正在处理中的请求数（Gauge）。
	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// DispatchTotal：每次分发的结果。
	// outcome：ok / validation / platform / config / internal / canceled
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_dispatch_total",
			Help: "Dispatched social requests by platform, action and outcome.",
		},
		[]string{"platform", "action", "outcome"},
	)

	DispatchDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_dispatch_duration_seconds",
			Help:    "End-to-end dispatch latency including vendor calls.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"platform", "action"},
	)

	// VendorRequestDurationSeconds：单次 vendor HTTP 调用耗时。
	// step 是 adapter 内部的步骤名（upload/create/metrics...），status 是 vendor 返回码或 "error"。
	VendorRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_vendor_request_duration_seconds",
			Help:    "Latency of outbound vendor API calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"platform", "step", "status"},
	)

	// RateLimitDecisionsTotal：decision 取 allowed / rejected / error。
	RateLimitDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_decisions_total",
			Help: "Rate limiter decisions.",
		},
		[]string{"decision"},
	)

	// MediaCacheTotal：result 取 hit / miss。
	MediaCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_requests_total",
			Help: "Media fetcher cache lookups.",
		},
		[]string{"result"},
	)

	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "social_events_dropped_total",
			Help: "Dispatch events dropped because the collector buffer was full.",
		},
	)
)

// Init 注册指标：只允许注册一次（否则 panic: duplicate metrics collector registration）
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			DispatchTotal,
			DispatchDurationSeconds,
			VendorRequestDurationSeconds,
			RateLimitDecisionsTotal,
			MediaCacheTotal,
			EventsDroppedTotal,
		)
	})
}
