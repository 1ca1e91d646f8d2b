package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/timeslots-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	storeOps        *prometheus.CounterVec
	storeOpDuration *prometheus.HistogramVec
	storesActive    prometheus.Gauge
	slotsGenerated  prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheWrite      prometheus.Observer

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	storeOpCount         uint64
	activeStores         int64
	generatedSlots       uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	storeOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slot_store_operations_total",
		Help: "Slot store operations by kind and outcome",
	}, []string{"operation", "result"})

	storeOpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slot_store_operation_seconds",
		Help:    "Time spent in slot store operations, including availability re-derivation",
		Buckets: []float64{.00005, .0001, .0005, .001, .005, .01, .05, .1},
	}, []string{"operation"})

	storesActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "slot_stores_active",
		Help: "Number of live slot stores",
	})

	slotsGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slots_generated_total",
		Help: "Slots produced by range partitioning",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "export_cache_hits_total",
		Help: "Export cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "export_cache_misses_total",
		Help: "Export cache misses",
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "export_cache_write_seconds",
		Help:    "Latency for export cache writes",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, storeOps, storeOpDuration, storesActive, slotsGenerated, cacheHits, cacheMisses, cacheWrite, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		storeOps:        storeOps,
		storeOpDuration: storeOpDuration,
		storesActive:    storesActive,
		slotsGenerated:  slotsGenerated,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cacheWrite:      cacheWrite,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveStoreOperation records one slot store operation.
func (m *MetricsService) ObserveStoreOperation(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeOps.WithLabelValues(operation, result).Inc()
	m.storeOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeOpCount, 1)
}

// AddSlotsGenerated counts partitioned slots.
func (m *MetricsService) AddSlotsGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.slotsGenerated.Add(float64(n))
	atomic.AddUint64(&m.generatedSlots, uint64(n))
}

// SetActiveStores publishes the number of live stores.
func (m *MetricsService) SetActiveStores(n int) {
	if m == nil {
		return
	}
	m.storesActive.Set(float64(n))
	atomic.StoreInt64(&m.activeStores, int64(n))
}

// RecordCacheOperation records export cache hits and misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheMisses.Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// Snapshot returns aggregated counters in a JSON friendly shape.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		ActiveStores:             int(atomic.LoadInt64(&m.activeStores)),
		StoreOperations:          atomic.LoadUint64(&m.storeOpCount),
		SlotsGenerated:           atomic.LoadUint64(&m.generatedSlots),
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
