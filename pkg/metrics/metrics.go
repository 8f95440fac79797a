package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标管理器
//
// A nil *Metrics is valid and records nothing, so callers never need to
// check whether monitoring is switched on.
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// synthesis
	synthRequestsTotal *prometheus.CounterVec
	synthDuration      prometheus.Histogram
	synthInFlight      prometheus.Gauge

	// extraction
	extractionsTotal   *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	extractionCache    *prometheus.CounterVec

	// 业务指标
	collectionsTotal *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the default registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		gatherer: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path", "status"},
		),

		synthRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceshelf_synthesis_requests_total",
				Help: "Speech synthesis calls by outcome",
			},
			[]string{"outcome"},
		),

		synthDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "voiceshelf_synthesis_duration_seconds",
				Help:    "Round trip time of speech synthesis calls",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
		),

		synthInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "voiceshelf_synthesis_in_flight",
				Help: "Speech synthesis calls currently waiting on the provider",
			},
		),

		extractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceshelf_extractions_total",
				Help: "Document extractions by format and outcome",
			},
			[]string{"format", "outcome"},
		),

		extractionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voiceshelf_extraction_duration_seconds",
				Help:    "Document extraction time",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),

		extractionCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceshelf_extraction_cache_total",
				Help: "Extraction memo lookups",
			},
			[]string{"result"},
		),

		collectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceshelf_collection_operations_total",
				Help: "Collection store operations",
			},
			[]string{"operation"},
		),
	}

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordHTTPRequest 记录HTTP请求指标
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, responseSize int64) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.httpResponseSize.WithLabelValues(method, path, status).Observe(float64(responseSize))
}

// SynthesisStarted marks a provider call as in flight. The returned func
// must be called with the outcome label once the call returns.
func (m *Metrics) SynthesisStarted() func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.synthInFlight.Inc()
	return func(outcome string) {
		m.synthInFlight.Dec()
		m.synthDuration.Observe(time.Since(start).Seconds())
		m.synthRequestsTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordExtraction 记录文档提取
func (m *Metrics) RecordExtraction(format, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.extractionsTotal.WithLabelValues(format, outcome).Inc()
	m.extractionDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// RecordExtractionCache counts a memo hit or miss.
func (m *Metrics) RecordExtractionCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.extractionCache.WithLabelValues(result).Inc()
}

// RecordCollectionOperation 记录业务操作
func (m *Metrics) RecordCollectionOperation(operation string) {
	if m == nil {
		return
	}
	m.collectionsTotal.WithLabelValues(operation).Inc()
}

// Reset 重置所有指标
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.httpRequestsTotal.Reset()
	m.httpRequestDuration.Reset()
	m.httpResponseSize.Reset()
	m.synthRequestsTotal.Reset()
	m.extractionsTotal.Reset()
	m.extractionDuration.Reset()
	m.extractionCache.Reset()
	m.collectionsTotal.Reset()
	m.synthInFlight.Set(0)
}
