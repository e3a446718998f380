package iocache

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/huangsam/flowpulse/schema"
)

// PrintStoreStatus prints work item store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Entities: %d\n", status.TotalEntities)
	_, _ = fmt.Fprintf(w, "Total Work Items: %d\n", status.TotalWorkItems)
	if !status.LastClosedDate.IsZero() {
		_, _ = fmt.Fprintf(w, "Last Closed: %s\n", status.LastClosedDate.Format("2006-01-02 15:04:05"))
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}

// PrintCacheStatus prints metrics cache status information.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus) {
	_, _ = fmt.Fprintf(w, "Cached Metrics: %d\n", status.TotalEntries)
	_, _ = fmt.Fprintf(w, "Expired (pending eviction): %d\n", status.ExpiredEntries)
	if !status.NextExpiry.IsZero() {
		_, _ = fmt.Fprintf(w, "Next Expiry: %s\n", status.NextExpiry.Format("2006-01-02 15:04:05"))
	}
}
