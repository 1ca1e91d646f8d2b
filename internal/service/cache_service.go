package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/timeslots-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService orchestrates cache operations and related metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// ExportKey identifies a rendered export. Any mutation bumps the store version, so stale entries are never read.
func ExportKey(storeID string, version uint64, format string) string {
	return fmt.Sprintf("export:%s:%d:%s", storeID, version, format)
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. The boolean reports a hit.
func (s *CacheService) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !s.Enabled() {
		return nil, false, nil
	}
	payload, err := s.repo.Get(ctx, key)
	if err != nil {
		s.metrics.RecordCacheOperation(false)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false, err
	}
	s.metrics.RecordCacheOperation(true)
	return payload, true, nil
}

// Set stores the payload in cache.
func (s *CacheService) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, payload, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// InvalidateStore removes every cached export of a store.
func (s *CacheService) InvalidateStore(ctx context.Context, storeID string) error {
	if !s.Enabled() {
		return nil
	}
	pattern := fmt.Sprintf("export:%s:*", storeID)
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}
