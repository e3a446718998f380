package metrics

import "time"

// CacheResult labels the outcome of a cache lookup.
type CacheResult string

const (
	CacheHit  CacheResult = "hit"
	CacheMiss CacheResult = "miss"
)

// Recorder defines observability hooks for the metrics services. The family
// label is the entity kind (team, project or portfolio).
type Recorder interface {
	IncCacheLookup(family, metric string, result CacheResult)
	AddInvalidations(family string, removed int)
	ObserveComputeDuration(family, metric string, d time.Duration)
	IncComputeError(family, metric string)
	AddImportedItems(family string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not served).
type NoopRecorder struct{}

func (NoopRecorder) IncCacheLookup(string, string, CacheResult)           {}
func (NoopRecorder) AddInvalidations(string, int)                         {}
func (NoopRecorder) ObserveComputeDuration(string, string, time.Duration) {}
func (NoopRecorder) IncComputeError(string, string)                       {}
func (NoopRecorder) AddImportedItems(string, int)                         {}
