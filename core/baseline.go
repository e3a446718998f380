package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/flowpulse/core/algo"
	"github.com/huangsam/flowpulse/schema"
)

// MinimumBaselineDays is the smallest distance between baseline start and end.
const MinimumBaselineDays = 14

// baselineWindow is the period the natural process limits are derived from.
type baselineWindow struct {
	start, end *time.Time
	configured bool
}

// resolveBaseline returns the configured baseline, or the display window when none is set.
func resolveBaseline(entity schema.Entity, start, end time.Time) baselineWindow {
	if entity.HasBaseline() {
		return baselineWindow{start: entity.BaselineStart, end: entity.BaselineEnd, configured: true}
	}
	return baselineWindow{start: &start, end: &end}
}

// ValidateBaseline checks a baseline against today and the done items cutoff (0 = unlimited).
// The error message is shown to users as the chart status reason.
func ValidateBaseline(start, end *time.Time, cutoffDays int, today time.Time) error {
	if start == nil || end == nil {
		return errors.New("both baseline start and end dates must be set")
	}
	if start.After(*end) {
		return errors.New("baseline start date must be before the end date")
	}
	if algo.DaysBetween(*start, *end) < MinimumBaselineDays {
		return fmt.Errorf("baseline must span at least %d days", MinimumBaselineDays)
	}
	if algo.DaysBetween(today, *end) > 0 {
		return errors.New("baseline end date is in the future")
	}
	if cutoffDays > 0 && algo.DaysBetween(*start, today) > cutoffDays {
		return fmt.Errorf("baseline start date is older than the done items cutoff of %d days", cutoffDays)
	}
	return nil
}
