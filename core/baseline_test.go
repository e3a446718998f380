package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateBaseline(t *testing.T) {
	today := date(2024, 3, 1)
	tests := []struct {
		name       string
		start, end *time.Time
		cutoffDays int
		wantErr    string
	}{
		{"valid", ptr(date(2024, 1, 1)), ptr(date(2024, 1, 15)), 0, ""},
		{"ends today", ptr(date(2024, 2, 1)), ptr(today), 0, ""},
		{"end time later today", ptr(date(2024, 2, 1)), ptr(today.Add(20 * time.Hour)), 0, ""},
		{"only start", ptr(date(2024, 1, 1)), nil, 0, "both baseline start and end"},
		{"only end", nil, ptr(date(2024, 1, 15)), 0, "both baseline start and end"},
		{"reversed", ptr(date(2024, 1, 20)), ptr(date(2024, 1, 1)), 0, "before the end date"},
		{"too short", ptr(date(2024, 1, 1)), ptr(date(2024, 1, 14)), 0, "at least 14 days"},
		{"future end", ptr(date(2024, 2, 1)), ptr(date(2024, 3, 2)), 0, "in the future"},
		{"within cutoff", ptr(date(2024, 2, 1)), ptr(date(2024, 2, 20)), 30, ""},
		{"older than cutoff", ptr(date(2024, 1, 1)), ptr(date(2024, 2, 20)), 30, "done items cutoff of 30 days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBaseline(tt.start, tt.end, tt.cutoffDays, today)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
