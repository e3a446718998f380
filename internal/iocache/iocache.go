// Package iocache holds the in-memory metrics cache and the SQL work item store.
package iocache

import (
	"sync"

	"github.com/huangsam/flowpulse/internal/contract"
)

// StoreManager guards the process-wide work item store.
type StoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	store        contract.WorkItemStore
}

// GetWorkItemStore returns the work item store, or nil before InitStore.
func (mgr *StoreManager) GetWorkItemStore() contract.WorkItemStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.store
}

// SetWorkItemStore replaces the store, mainly for tests and the MCP server.
func (mgr *StoreManager) SetWorkItemStore(store contract.WorkItemStore) {
	mgr.Lock()
	defer mgr.Unlock()
	mgr.store = store
}
