package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest("GET", "/api/v1/slot-stores/:id", 200, 10*time.Millisecond)
	m.ObserveHTTPRequest("POST", "/api/v1/slot-stores", 201, 30*time.Millisecond)
	m.ObserveStoreOperation("create", nil, time.Millisecond)
	m.ObserveStoreOperation("patch", errors.New("boom"), time.Millisecond)
	m.AddSlotsGenerated(16)
	m.AddSlotsGenerated(-3)
	m.SetActiveStores(2)
	m.RecordCacheOperation(true)
	m.RecordCacheOperation(false)
	m.RecordCacheOperation(false)
	m.RecordCacheOperation(true)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 20.0, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snap.StoreOperations)
	assert.Equal(t, uint64(16), snap.SlotsGenerated)
	assert.Equal(t, 2, snap.ActiveStores)
	assert.Equal(t, uint64(2), snap.CacheHits)
	assert.Equal(t, uint64(2), snap.CacheMisses)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
	assert.Positive(t, snap.Goroutines)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveStoreOperation("append_unavailable", nil, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `slot_store_operations_total{operation="append_unavailable",result="ok"} 1`)
	assert.Contains(t, body, "goroutines_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	m.ObserveStoreOperation("create", nil, time.Millisecond)
	m.RecordCacheOperation(true)
	m.SetActiveStores(1)

	assert.Zero(t, m.Snapshot().RequestsTotal)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
