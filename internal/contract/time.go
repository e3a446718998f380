package contract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the calendar date representation used by flags and exports.
const DateFormat = time.DateOnly

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Define the regular expression to capture "N [units] ago"
// e.g., "2 years ago", "3 months ago", "1 week ago".
var relativeTimeRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day)s?\s+ago$`)

// maxRelativeValue bounds N so that date arithmetic cannot overflow.
const maxRelativeValue = 100000

// ParseRelativeTime converts strings like "2 years ago" into a time.Time in the past.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	matches := relativeTimeRe.FindStringSubmatch(s)
	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("invalid relative time format: %s", s)
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil || value > maxRelativeValue {
		return time.Time{}, fmt.Errorf("invalid relative time value: %s", matches[1])
	}

	switch matches[2] {
	case "year":
		return now.AddDate(-value, 0, 0), nil
	case "month":
		return now.AddDate(0, -value, 0), nil
	case "week":
		return now.AddDate(0, 0, -7*value), nil
	default: // day
		return now.AddDate(0, 0, -value), nil
	}
}

// ParseDateInput accepts RFC3339, YYYY-MM-DD (midnight in the location of now) or
// "N [units] ago" relative to now.
func ParseDateInput(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateTimeFormat, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(DateFormat, s, now.Location()); err == nil {
		return t, nil
	}
	t, err := ParseRelativeTime(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q. Expected RFC3339, YYYY-MM-DD or 'N [units] ago'", s)
	}
	return t, nil
}

// ParseOptionalDate parses an optional date column or flag; empty input yields nil.
func ParseOptionalDate(s string, now time.Time) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDateInput(s, now)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ValidateDateRange returns ErrInvalidDateRange when start is after end.
func ValidateDateRange(start, end time.Time) error {
	if start.After(end) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidDateRange, start.Format(DateFormat), end.Format(DateFormat))
	}
	return nil
}
