package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/metrics"
	"github.com/huangsam/flowpulse/schema"
)

// MetricsService answers metric queries for one entity family with cache-or-compute.
// Every family shares the same cache; keys are scoped by entity id only.
type MetricsService struct {
	kind     schema.EntityKind
	cache    contract.MetricsCache
	repo     contract.WorkItemRepository
	refresh  time.Duration
	clamp    bool
	logger   *slog.Logger
	recorder metrics.Recorder
	now      func() time.Time
}

// Option configures a MetricsService.
type Option func(*MetricsService)

// WithLogger sets the logger used for cache hits, misses and invalidations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *MetricsService) { s.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(s *MetricsService) { s.recorder = recorder }
}

// WithClock overrides the clock used for "today" and item ages.
func WithClock(now func() time.Time) Option {
	return func(s *MetricsService) { s.now = now }
}

// WithClampLowerLimit controls whether process behaviour chart lower limits are clamped to zero.
func WithClampLowerLimit(clamp bool) Option {
	return func(s *MetricsService) { s.clamp = clamp }
}

// NewMetricsService creates the service for a family. Results live in cache for refresh.
func NewMetricsService(kind schema.EntityKind, cache contract.MetricsCache, repo contract.WorkItemRepository, refresh time.Duration, opts ...Option) *MetricsService {
	s := &MetricsService{
		kind:     kind,
		cache:    cache,
		repo:     repo,
		refresh:  refresh,
		clamp:    true,
		logger:   contract.DiscardLogger(),
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind returns the entity family served.
func (s *MetricsService) Kind() schema.EntityKind { return s.kind }

// Refresh returns the cache lifetime of computed metrics.
func (s *MetricsService) Refresh() time.Duration { return s.refresh }

// CacheKey builds the cache key "{id}_{kind}.{metric}" of a metric for an entity.
// Families share one cache and reuse ids, so the metric is qualified by the family.
func CacheKey(kind schema.EntityKind, entity contract.Entity, metric string) string {
	return entityPrefix(kind, entity) + metric
}

// entityPrefix matches every key of one entity. The underscore keeps id 4 from matching 42.
func entityPrefix(kind schema.EntityKind, entity contract.Entity) string {
	return fmt.Sprintf("%d_%s.", entity.GetID(), kind)
}

// GetOrCompute returns the cached metric for the entity or computes and caches it.
// Compute errors are returned and never cached. A cached value of another type counts as a miss.
func GetOrCompute[T any](ctx context.Context, s *MetricsService, entity contract.Entity, metric string, compute func(ctx context.Context) (T, error)) (T, error) {
	key := CacheKey(s.kind, entity, metric)
	family := string(s.kind)
	name, _, _ := strings.Cut(metric, ":")

	if cached, ok := s.cache.Get(key); ok {
		if value, ok := cached.(T); ok {
			s.logger.Debug("metrics cache hit", "cache_key", key)
			s.recorder.IncCacheLookup(family, name, metrics.CacheHit)
			return value, nil
		}
	}
	s.logger.Debug("metrics cache miss", "cache_key", key)
	s.recorder.IncCacheLookup(family, name, metrics.CacheMiss)

	start := time.Now()
	value, err := compute(ctx)
	if err != nil {
		s.recorder.IncComputeError(family, name)
		var zero T
		return zero, err
	}
	s.recorder.ObserveComputeDuration(family, name, time.Since(start))

	s.cache.Store(key, value, s.refresh)
	return value, nil
}

// InvalidateMetrics drops every cached metric of the entity and returns how many were removed.
func (s *MetricsService) InvalidateMetrics(entity contract.Entity) int {
	removed := s.cache.RemovePrefix(entityPrefix(s.kind, entity))
	s.logger.Info("invalidated metrics",
		"entity_kind", s.kind,
		"entity_id", entity.GetID(),
		"entity_name", entity.GetName(),
		"removed", removed)
	s.recorder.AddInvalidations(string(s.kind), removed)
	return removed
}

// workItems loads the items of the entity from the repository.
func (s *MetricsService) workItems(ctx context.Context, entity contract.Entity) ([]schema.WorkItem, error) {
	items, err := s.repo.ListWorkItems(ctx, s.kind, entity.GetID())
	if err != nil {
		return nil, fmt.Errorf("failed to load work items of %s %d: %w", s.kind, entity.GetID(), err)
	}
	return items, nil
}
