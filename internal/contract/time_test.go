package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

// TestParseRelativeTimeUnit covers various valid and invalid cases.
func TestParseRelativeTimeUnit(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    time.Time
		expectError bool
	}{
		{
			name:     "valid plural months (mixed case)",
			input:    "3 MoNtHs AgO",
			expected: fixedNow.AddDate(0, -3, 0),
		},
		{
			name:     "valid singular week (capitalized)",
			input:    "1 Week Ago",
			expected: fixedNow.AddDate(0, 0, -7),
		},
		{
			name:     "valid 10 days (upper case)",
			input:    "10 DAYS AGO",
			expected: fixedNow.AddDate(0, 0, -10),
		},
		{
			name:     "valid years",
			input:    "2 years ago",
			expected: fixedNow.AddDate(-2, 0, 0),
		},
		{
			name:        "invalid missing ago",
			input:       "2 years",
			expectError: true,
		},
		{
			name:        "invalid sub-day unit",
			input:       "4 hours ago",
			expectError: true,
		},
		{
			name:        "invalid non-numeric value",
			input:       "one year ago",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tResult, err := ParseRelativeTime(tt.input, fixedNow)

			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, tResult)
			}
		})
	}
}

// TestParseDateInput covers absolute, date-only and relative inputs.
func TestParseDateInput(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    time.Time
		expectError bool
	}{
		{"rfc3339", "2024-02-01T08:30:00Z", time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC), false},
		{"date only", "2024-02-01", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), false},
		{"relative", "5 days ago", fixedNow.AddDate(0, 0, -5), false},
		{"padded", "  2024-02-01 ", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), false},
		{"garbage", "yesterday-ish", time.Time{}, true},
		{"impossible date", "2024-02-30", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateInput(tt.input, fixedNow)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

// TestParseOptionalDate checks that blank input yields nil.
func TestParseOptionalDate(t *testing.T) {
	got, err := ParseOptionalDate("   ", fixedNow)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseOptionalDate("2024-03-01", fixedNow)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2024, got.Year())

	_, err = ParseOptionalDate("not a date", fixedNow)
	assert.Error(t, err)
}

// TestValidateDateRange checks reversed ranges are rejected with the sentinel error.
func TestValidateDateRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateDateRange(start, end))
	assert.NoError(t, ValidateDateRange(start, start))
	assert.ErrorIs(t, ValidateDateRange(end, start), ErrInvalidDateRange)
}
