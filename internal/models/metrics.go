package models

import "time"

// SystemMetrics is a point-in-time summary of service counters.
type SystemMetrics struct {
	ActiveStores             int       `json:"active_stores"`
	StoreOperations          uint64    `json:"store_operations"`
	SlotsGenerated           uint64    `json:"slots_generated"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
