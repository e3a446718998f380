package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/iocache"
	"github.com/huangsam/flowpulse/internal/metrics"
	"github.com/huangsam/flowpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// testClock is a manually advanced clock shared by the cache and the service.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingRecorder counts recorder calls.
type countingRecorder struct {
	metrics.NoopRecorder
	mu            sync.Mutex
	hits, misses  int
	invalidated   int
	computeErrors int
	imported      int
}

func (r *countingRecorder) IncCacheLookup(_, _ string, result metrics.CacheResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if result == metrics.CacheHit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *countingRecorder) AddInvalidations(_ string, removed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated += removed
}

func (r *countingRecorder) IncComputeError(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.computeErrors++
}

func (r *countingRecorder) AddImportedItems(_ string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imported += n
}

func newTestService(repo contract.WorkItemRepository, opts ...Option) (*MetricsService, *iocache.MetricsCache, *testClock) {
	clock := &testClock{now: fixedNow}
	cache := iocache.NewMetricsCache(iocache.WithClock(clock.Now))
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewMetricsService(schema.TeamEntity, cache, repo, 30*time.Minute, opts...), cache, clock
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "42_team.Throughput", CacheKey(schema.TeamEntity, schema.Entity{ID: 42}, "Throughput"))
	assert.Equal(t, "7_portfolio.WIP", CacheKey(schema.PortfolioEntity, schema.Entity{ID: 7, Name: "Platform"}, string(schema.CurrentWIPMetric)))
}

func TestNewMetricsService_Defaults(t *testing.T) {
	svc := NewMetricsService(schema.ProjectEntity, iocache.NewMetricsCache(), &contract.MockWorkItemRepository{}, time.Hour)
	assert.Equal(t, schema.ProjectEntity, svc.Kind())
	assert.Equal(t, time.Hour, svc.Refresh())
	assert.True(t, svc.clamp)
	assert.NotNil(t, svc.logger)
	assert.IsType(t, metrics.NoopRecorder{}, svc.recorder)
}

func TestGetOrCompute(t *testing.T) {
	ctx := context.Background()
	entity := schema.Entity{ID: 1, Name: "Platform"}

	t.Run("caches the result", func(t *testing.T) {
		recorder := &countingRecorder{}
		svc, _, _ := newTestService(&contract.MockWorkItemRepository{}, WithRecorder(recorder))
		calls := 0
		compute := func(context.Context) (int, error) { calls++; return 7, nil }

		first, err := GetOrCompute(ctx, svc, entity, "Answer", compute)
		require.NoError(t, err)
		second, err := GetOrCompute(ctx, svc, entity, "Answer", compute)
		require.NoError(t, err)

		assert.Equal(t, 7, first)
		assert.Equal(t, 7, second)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, recorder.hits)
		assert.Equal(t, 1, recorder.misses)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		recorder := &countingRecorder{}
		svc, cache, _ := newTestService(&contract.MockWorkItemRepository{}, WithRecorder(recorder))
		boom := errors.New("boom")

		_, err := GetOrCompute(ctx, svc, entity, "Answer", func(context.Context) (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, cache.Len())
		assert.Equal(t, 1, recorder.computeErrors)

		value, err := GetOrCompute(ctx, svc, entity, "Answer", func(context.Context) (int, error) { return 3, nil })
		require.NoError(t, err)
		assert.Equal(t, 3, value)
	})

	t.Run("recomputes after refresh elapses", func(t *testing.T) {
		svc, _, clock := newTestService(&contract.MockWorkItemRepository{})
		calls := 0
		compute := func(context.Context) (int, error) { calls++; return calls, nil }

		_, _ = GetOrCompute(ctx, svc, entity, "Answer", compute)
		clock.Advance(30 * time.Minute)
		value, _ := GetOrCompute(ctx, svc, entity, "Answer", compute)
		assert.Equal(t, 1, value, "entry is still valid at its deadline")

		clock.Advance(time.Second)
		value, _ = GetOrCompute(ctx, svc, entity, "Answer", compute)
		assert.Equal(t, 2, value)
	})

	t.Run("wrong cached type is a miss", func(t *testing.T) {
		svc, cache, _ := newTestService(&contract.MockWorkItemRepository{})
		cache.Store(CacheKey(schema.TeamEntity, entity, "Answer"), "not an int", time.Hour)

		value, err := GetOrCompute(ctx, svc, entity, "Answer", func(context.Context) (int, error) { return 9, nil })
		require.NoError(t, err)
		assert.Equal(t, 9, value)

		cached, ok := cache.Get(CacheKey(schema.TeamEntity, entity, "Answer"))
		require.True(t, ok)
		assert.Equal(t, 9, cached)
	})
}

func TestInvalidateMetrics(t *testing.T) {
	recorder := &countingRecorder{}
	svc, cache, _ := newTestService(&contract.MockWorkItemRepository{}, WithRecorder(recorder))
	cache.Store("42_team.Throughput", 1, time.Hour)
	cache.Store("42_team.WIP", 2, time.Hour)
	cache.Store("43_team.Throughput", 3, time.Hour)
	cache.Store("4_team.Throughput", 4, time.Hour)

	removed := svc.InvalidateMetrics(schema.Entity{ID: 42, Name: "Platform"})

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"43_team.Throughput", "4_team.Throughput"}, cache.Keys())
	assert.Equal(t, 2, recorder.invalidated)
	assert.Zero(t, svc.InvalidateMetrics(schema.Entity{ID: 42}))
}

func TestMetricsService_FamiliesShareCache(t *testing.T) {
	ctx := context.Background()
	cache := iocache.NewMetricsCache()
	repo := &contract.MockWorkItemRepository{}
	repo.On("ListWorkItems", mock.Anything, schema.TeamEntity, 1).
		Return([]schema.WorkItem{closedItem(1, date(2024, 1, 2), 1)}, nil).Once()
	repo.On("ListWorkItems", mock.Anything, schema.ProjectEntity, 1).
		Return([]schema.WorkItem{}, nil).Once()

	team := NewMetricsService(schema.TeamEntity, cache, repo, time.Hour)
	project := NewMetricsService(schema.ProjectEntity, cache, repo, time.Hour)
	teamOne := schema.Entity{Kind: schema.TeamEntity, ID: 1}
	projectOne := schema.Entity{Kind: schema.ProjectEntity, ID: 1}

	teamChart, err := team.Throughput(ctx, teamOne, date(2024, 1, 1), date(2024, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0}, teamChart.Values)

	projectChart, err := project.Throughput(ctx, projectOne, date(2024, 1, 1), date(2024, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0}, projectChart.Values, "same id in another family is a separate entry")

	assert.Equal(t, 1, project.InvalidateMetrics(projectOne))
	assert.Equal(t, []string{"1_team.Throughput:2024-01-01:2024-01-03"}, cache.Keys())

	teamChart, err = team.Throughput(ctx, teamOne, date(2024, 1, 1), date(2024, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0}, teamChart.Values, "served from cache")
	repo.AssertExpectations(t)
}

func TestGetOrCompute_Concurrent(t *testing.T) {
	svc, cache, _ := newTestService(&contract.MockWorkItemRepository{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 16 {
		entity := schema.Entity{ID: i % 4}
		wg.Go(func() {
			value, err := GetOrCompute(ctx, svc, entity, "Answer", func(context.Context) (int, error) {
				return entity.ID * 10, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, entity.ID*10, value)
		})
	}
	wg.Wait()
	assert.Equal(t, 4, cache.Len())
}
