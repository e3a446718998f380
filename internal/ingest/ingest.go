// Package ingest reads work items exported from a tracker as CSV.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/flowpulse/schema"
)

// Column names recognized in the header row. Only reference_id is required.
const (
	ColReferenceID = "reference_id"
	ColName        = "name"
	ColState       = "state"
	ColCreated     = "created"
	ColStarted     = "started"
	ColClosed      = "closed"
	ColCycleTime   = "cycle_time_days"
	ColSize        = "size"
)

// ReadWorkItemsFile reads a CSV file of work items for one entity.
func ReadWorkItemsFile(path string, kind schema.EntityKind, entityID int) ([]schema.WorkItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadWorkItems(f, kind, entityID)
}

// ReadWorkItems parses CSV rows into work items owned by the given entity.
// The state defaults from the dates when the column is missing or blank.
func ReadWorkItems(r io.Reader, kind schema.EntityKind, entityID int) ([]schema.WorkItem, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns[ColReferenceID]; !ok {
		return nil, fmt.Errorf("header must contain %q", ColReferenceID)
	}

	items := []schema.WorkItem{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		item, err := parseRecord(record, columns)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		item.EntityKind = kind
		item.EntityID = entityID
		items = append(items, item)
	}
	return items, nil
}

func parseRecord(record []string, columns map[string]int) (schema.WorkItem, error) {
	field := func(name string) string {
		if i, ok := columns[name]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	item := schema.WorkItem{ReferenceID: field(ColReferenceID), Name: field(ColName)}
	if item.ReferenceID == "" {
		return item, errors.New("reference_id must not be empty")
	}

	var err error
	if created, perr := parseTimestamp(field(ColCreated)); perr != nil {
		return item, fmt.Errorf("invalid %s: %w", ColCreated, perr)
	} else if created != nil {
		item.CreatedDate = *created
	}
	if item.StartedDate, err = parseTimestamp(field(ColStarted)); err != nil {
		return item, fmt.Errorf("invalid %s: %w", ColStarted, err)
	}
	if item.ClosedDate, err = parseTimestamp(field(ColClosed)); err != nil {
		return item, fmt.Errorf("invalid %s: %w", ColClosed, err)
	}
	if item.CycleTimeDays, err = parseCount(field(ColCycleTime)); err != nil {
		return item, fmt.Errorf("invalid %s: %w", ColCycleTime, err)
	}
	if item.Size, err = parseCount(field(ColSize)); err != nil {
		return item, fmt.Errorf("invalid %s: %w", ColSize, err)
	}

	item.State, err = parseState(field(ColState), item)
	return item, err
}

// parseTimestamp accepts RFC3339 or a plain date (UTC midnight). Blank means unset.
func parseTimestamp(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative (received %d)", n)
	}
	return n, nil
}

// parseState maps a state column onto a category, or infers it from the dates.
func parseState(s string, item schema.WorkItem) (schema.StateCategory, error) {
	if s == "" {
		switch {
		case item.ClosedDate != nil:
			return schema.DoneState, nil
		case item.StartedDate != nil:
			return schema.DoingState, nil
		default:
			return schema.ToDoState, nil
		}
	}
	state := schema.StateCategory(strings.ToLower(s))
	if _, ok := schema.ValidStateCategories[state]; !ok {
		return "", fmt.Errorf("invalid state %q. must be todo, doing, done", s)
	}
	return state, nil
}
