// Package schema has models and constants shared by all parts of flowpulse.
package schema

import "time"

// WorkItem is a single unit of delivered work with its lifecycle dates.
// Items are produced by ingestion and treated as read-only values by the analytics core.
type WorkItem struct {
	ID            int           `json:"id"`
	ReferenceID   string        `json:"reference_id"`
	Name          string        `json:"name"`
	EntityKind    EntityKind    `json:"entity_kind"`
	EntityID      int           `json:"entity_id"`
	State         StateCategory `json:"state"`
	CreatedDate   time.Time     `json:"created_date"`
	StartedDate   *time.Time    `json:"started_date,omitempty"`
	ClosedDate    *time.Time    `json:"closed_date,omitempty"`
	CycleTimeDays int           `json:"cycle_time_days"`
	AgeDays       int           `json:"age_days"`
	Size          int           `json:"size"` // child item count, used for features
}

// Entity is a team, project or portfolio whose metrics are tracked and cached by id.
type Entity struct {
	Kind EntityKind `json:"kind"`
	ID   int        `json:"id"`
	Name string     `json:"name"`

	// ThroughputHistoryDays is the rolling window used by the current throughput query.
	ThroughputHistoryDays int `json:"throughput_history_days"`

	// Fixed throughput window, used instead of the rolling one when both are set.
	ThroughputStart *time.Time `json:"throughput_start,omitempty"`
	ThroughputEnd   *time.Time `json:"throughput_end,omitempty"`

	// Baseline window for process behaviour charts. Unset means the display window is used.
	BaselineStart *time.Time `json:"baseline_start,omitempty"`
	BaselineEnd   *time.Time `json:"baseline_end,omitempty"`

	// DoneItemsCutoffDays is how far back closed items are retained (0 = unlimited).
	DoneItemsCutoffDays int `json:"done_items_cutoff_days"`
}

// GetID returns the entity id.
func (e Entity) GetID() int { return e.ID }

// GetName returns the entity name.
func (e Entity) GetName() string { return e.Name }

// HasBaseline reports whether any baseline bound is configured.
func (e Entity) HasBaseline() bool {
	return e.BaselineStart != nil || e.BaselineEnd != nil
}
