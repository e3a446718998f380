package schema

import "time"

// CacheStatus represents the status of the in-memory metrics cache.
type CacheStatus struct {
	TotalEntries   int       `json:"total_entries"`
	ExpiredEntries int       `json:"expired_entries"`
	NextExpiry     time.Time `json:"next_expiry"`
}

// StoreStatus represents the status of the work item store.
type StoreStatus struct {
	Backend        string           `json:"backend"`
	Connected      bool             `json:"connected"`
	TotalEntities  int              `json:"total_entities"`
	TotalWorkItems int              `json:"total_work_items"`
	LastClosedDate time.Time        `json:"last_closed_date"`
	TableSizes     map[string]int64 `json:"table_sizes"`
}
